package admin

import (
	"log/slog"
	"net/http"

	"tbt/pkg/platform/httputil"
	"tbt/pkg/requestcontext"
)

// RequireAdmin rejects callers whose token does not carry the admin role.
// Must run after auth.RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ident, ok := requestcontext.CurrentIdentity(ctx)
			if !ok || !ident.IsAdmin() {
				logger.WarnContext(ctx, "admin role required",
					"user_id", requestcontext.UserID(ctx).String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{
					Error:            "forbidden",
					ErrorDescription: "admin role required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
