package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	jwttoken "tbt/internal/jwt_token"
	"tbt/internal/platform/metrics"
	"tbt/internal/platform/middleware"
	profilehandler "tbt/internal/profile/handler"
	transferhandler "tbt/internal/transfer/handler"
	workhandler "tbt/internal/work/handler"
	"tbt/pkg/platform/middleware/admin"
	"tbt/pkg/platform/middleware/auth"
	"tbt/pkg/platform/middleware/metadata"
	"tbt/pkg/platform/middleware/requesttime"
)

// router mounts public routes, then everything behind bearer auth. Profiles
// are ensured before any authenticated handler runs so ownership rows always
// have a profile to point at.
func (a *app) router() http.Handler {
	validator := jwttoken.NewAdapter(jwttoken.NewJWTService(
		a.cfg.Server.JWTSigningKey,
		a.cfg.Server.JWTIssuer,
		a.cfg.Server.JWTAudience,
	))
	profiles := profilehandler.New(a.profiles, a.logger)
	works := workhandler.New(a.works, a.logger)
	transfers := transferhandler.New(a.transfers, a.logger,
		transferhandler.WithCodeLimiter(a.limiter.CodeAttempts),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(metrics.NewHTTP(a.registry).Middleware)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", a.healthHandler)
	r.Handle("/metrics", metrics.Handler(a.registry))
	works.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, a.logger))
		r.Use(profiles.EnsureProfile)

		profiles.Register(r)
		works.Register(r)
		transfers.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdmin(a.logger))
			works.RegisterAdmin(r)
		})
	})

	return otelhttp.NewHandler(r, "tbt",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/healthz" && req.URL.Path != "/metrics"
		}),
	)
}
