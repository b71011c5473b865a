package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tbt/internal/profile/models"
	"tbt/internal/profile/service"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/httputil"
	"tbt/pkg/requestcontext"
)

type Service interface {
	Ensure(ctx context.Context, ident requestcontext.Identity) (*models.Profile, error)
	UpdateMe(ctx context.Context, cmd service.UpdateCommand) (*models.Profile, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the caller's profile endpoints. Callers must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/profile", h.HandleGetMe)
	r.Put("/me/profile", h.HandleUpdateMe)
}

// EnsureProfile creates the caller's profile before any handler that writes a
// foreign key to it. Must run after auth.RequireAuth.
func (h *Handler) EnsureProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ident, ok := requestcontext.CurrentIdentity(ctx)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		if _, err := h.service.Ensure(ctx, ident); err != nil {
			h.logger.ErrorContext(ctx, "failed to ensure profile",
				"user_id", ident.UserID.String(),
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleGetMe handles GET /me/profile.
func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := requestcontext.CurrentIdentity(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	p, err := h.service.Ensure(r.Context(), ident)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// HandleUpdateMe handles PUT /me/profile.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.UpdateMe(ctx, service.UpdateCommand{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Email:       req.Email,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// UpdateRequest is the body of PUT /me/profile.
type UpdateRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Phone) > 32 {
		return dErrors.New(dErrors.CodeValidation, "phone must be at most 32 characters")
	}
	if len(r.Email) > 254 {
		return dErrors.New(dErrors.CodeValidation, "email must be at most 254 characters")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return nil
}

type Response struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(p *models.Profile) Response {
	return Response{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		Phone:       p.Phone,
		Email:       p.Email,
		UpdatedAt:   p.UpdatedAt,
	}
}
