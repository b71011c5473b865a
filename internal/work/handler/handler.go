package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tbt/internal/work/models"
	"tbt/internal/work/service"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/httputil"
	"tbt/pkg/requestcontext"
)

// Service is the work surface exposed over HTTP.
type Service interface {
	Certify(ctx context.Context, cmd service.CertifyCommand) (*models.Work, error)
	Get(ctx context.Context, workID id.WorkID) (*models.Work, error)
	ListMine(ctx context.Context) ([]*models.Work, error)
	Certificate(ctx context.Context, tbtID string) (*models.Certificate, error)
	History(ctx context.Context, workID id.WorkID) ([]*models.Transfer, error)
	Gift(ctx context.Context, workID id.WorkID, to id.UserID) (*models.Transfer, error)
	AdminReassign(ctx context.Context, workID id.WorkID, to id.UserID) (*models.Transfer, error)
	AdminRotate(ctx context.Context, workID id.WorkID) (*models.Work, error)
}

// Handler wires work endpoints to the work service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated certificate lookup.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/certificates/{tbt_id}", h.HandleCertificate)
}

// Register mounts owner and creator endpoints. Callers must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Post("/works", h.HandleCertify)
	r.Get("/works", h.HandleListMine)
	r.Get("/works/{id}", h.HandleGet)
	r.Get("/works/{id}/transfers", h.HandleHistory)
	r.Post("/works/{id}/gift", h.HandleGift)
}

// RegisterAdmin mounts support endpoints. Callers must carry the admin role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/works/{id}/reassign", h.HandleAdminReassign)
	r.Post("/admin/works/{id}/rotate", h.HandleAdminRotate)
}

// HandleCertify handles POST /works.
func (h *Handler) HandleCertify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CertifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	work, err := h.service.Certify(ctx, req.Command())
	if err != nil {
		h.logger.WarnContext(ctx, "certify failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toWorkResponse(work))
}

// HandleListMine handles GET /works.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	works, err := h.service.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := WorkListResponse{Works: make([]WorkResponse, 0, len(works))}
	for _, work := range works {
		resp.Works = append(resp.Works, toWorkResponse(work))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /works/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	workID, err := id.ParseWorkID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	work, err := h.service.Get(r.Context(), workID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkResponse(work))
}

// HandleHistory handles GET /works/{id}/transfers.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	workID, err := id.ParseWorkID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	transfers, err := h.service.History(r.Context(), workID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := TransferListResponse{Transfers: make([]TransferResponse, 0, len(transfers))}
	for _, t := range transfers {
		resp.Transfers = append(resp.Transfers, toTransferResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCertificate handles GET /certificates/{tbt_id}.
func (h *Handler) HandleCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.Certificate(r.Context(), chi.URLParam(r, "tbt_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

// HandleGift handles POST /works/{id}/gift.
func (h *Handler) HandleGift(w http.ResponseWriter, r *http.Request) {
	h.handleReassign(w, r, "gift", h.service.Gift)
}

// HandleAdminReassign handles POST /admin/works/{id}/reassign.
func (h *Handler) HandleAdminReassign(w http.ResponseWriter, r *http.Request) {
	h.handleReassign(w, r, "admin reassign", h.service.AdminReassign)
}

func (h *Handler) handleReassign(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, id.WorkID, id.UserID) (*models.Transfer, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	workID, err := id.ParseWorkID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReassignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	transfer, err := fn(ctx, workID, req.ParsedToUserID())
	if err != nil {
		h.logger.WarnContext(ctx, op+" failed",
			"request_id", requestID,
			"work_id", workID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransferResponse(transfer))
}

// HandleAdminRotate handles POST /admin/works/{id}/rotate.
func (h *Handler) HandleAdminRotate(w http.ResponseWriter, r *http.Request) {
	workID, err := id.ParseWorkID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	work, err := h.service.AdminRotate(r.Context(), workID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkResponse(work))
}
