package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tbt/internal/transfer/models"
	"tbt/internal/transfer/service"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/httputil"
	"tbt/pkg/requestcontext"
)

// Service is the claim protocol exposed over HTTP.
type Service interface {
	SubmitCode(ctx context.Context, raw string) (*models.Claim, error)
	SubmitDetails(ctx context.Context, claimID id.ClaimID, cmd service.DetailsCommand) (*models.Claim, error)
	Pay(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	Status(ctx context.Context, claimID id.ClaimID) (*service.ClaimView, error)
	Cancel(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
}

// Handler wires claim endpoints to the transfer service.
type Handler struct {
	service     Service
	logger      *slog.Logger
	codeLimiter func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithCodeLimiter throttles code submissions, the only endpoint that can
// be used to guess codes.
func WithCodeLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.codeLimiter = mw
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the claim endpoints. Callers must be authenticated.
func (h *Handler) Register(r chi.Router) {
	if h.codeLimiter != nil {
		r.With(h.codeLimiter).Post("/transfers/claims", h.HandleSubmitCode)
	} else {
		r.Post("/transfers/claims", h.HandleSubmitCode)
	}
	r.Get("/transfers/claims/{id}", h.HandleStatus)
	r.Put("/transfers/claims/{id}/details", h.HandleSubmitDetails)
	r.Post("/transfers/claims/{id}/payment", h.HandlePay)
	r.Delete("/transfers/claims/{id}", h.HandleCancel)
}

// HandleSubmitCode handles POST /transfers/claims.
func (h *Handler) HandleSubmitCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.SubmitCode(ctx, req.Code)
	if err != nil {
		h.logger.InfoContext(ctx, "transfer code rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if claim.Stage == models.StageComplete {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, toClaimResponse(claim, nil))
}

// HandleSubmitDetails handles PUT /transfers/claims/{id}/details.
func (h *Handler) HandleSubmitDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DetailsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.SubmitDetails(ctx, claimID, req.Command())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(claim, nil))
}

// HandlePay handles POST /transfers/claims/{id}/payment.
func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	claim, err := h.service.Pay(ctx, claimID)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer payment failed",
			"request_id", requestcontext.RequestID(ctx),
			"claim_id", claimID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(claim, nil))
}

// HandleStatus handles GET /transfers/claims/{id}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.Status(r.Context(), claimID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(view.Claim, view.Warnings))
}

// HandleCancel handles DELETE /transfers/claims/{id}.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.service.Cancel(r.Context(), claimID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(claim, nil))
}
