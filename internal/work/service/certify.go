package service

import (
	"context"
	"errors"
	"strings"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

type CertifyCommand struct {
	Title   string
	Terms   models.Terms
	TokenID string
}

// Certify registers a new work owned by the calling creator with a live code.
func (s *Service) Certify(ctx context.Context, cmd CertifyCommand) (*models.Work, error) {
	creator := requestcontext.UserID(ctx)
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	title := strings.TrimSpace(cmd.Title)
	terms := cmd.Terms
	if terms.RoyaltyType == "" {
		terms.RoyaltyType = models.RoyaltyNone
	}
	now := requestcontext.Now(ctx)

	var lastErr error
	for range maxCodeAttempts {
		code, err := s.codes.TransferCode()
		if err != nil {
			return nil, wrapWorkErr(err, "generate transfer code")
		}
		tbtID, err := s.codes.TBTID(now.Year())
		if err != nil {
			return nil, wrapWorkErr(err, "generate certificate id")
		}
		w, err := models.NewWork(id.NewWorkID(), tbtID, title, creator, code, terms, strings.TrimSpace(cmd.TokenID), now)
		if err != nil {
			return nil, err
		}
		err = s.works.Create(ctx, w)
		if err == nil {
			s.metrics.IncWorksCertified()
			s.logger.InfoContext(ctx, "work certified",
				"work_id", w.ID.String(),
				"tbt_id", w.TBTID,
				"creator_id", creator.String(),
			)
			return w, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, wrapWorkErr(err, "certify work")
		}
		s.metrics.IncCodeCollisions()
		lastErr = err
	}
	return nil, wrapWorkErr(lastErr, "certify work")
}

// Get returns a work to its owner, creator or an admin. Only the owner sees
// the transfer code.
func (s *Service) Get(ctx context.Context, workID id.WorkID) (*models.Work, error) {
	w, err := s.works.FindByID(ctx, workID)
	if err != nil {
		return nil, wrapWorkErr(err, "get work")
	}
	viewer, _ := requestcontext.CurrentIdentity(ctx)
	if !canView(w, viewer) {
		return nil, dErrors.New(dErrors.CodeNotFound, "work not found")
	}
	return redact(w, viewer.UserID), nil
}

// ListMine returns the caller's works, newest first.
func (s *Service) ListMine(ctx context.Context) ([]*models.Work, error) {
	owner := requestcontext.UserID(ctx)
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	works, err := s.works.ListByOwner(ctx, owner)
	if err != nil {
		return nil, wrapWorkErr(err, "list works")
	}
	return works, nil
}

// Certificate is the public lookup by TBT id.
func (s *Service) Certificate(ctx context.Context, tbtID string) (*models.Certificate, error) {
	tbtID = strings.ToUpper(strings.TrimSpace(tbtID))
	if s.certs != nil {
		if cert, ok := s.certs.get(tbtID); ok {
			return &cert, nil
		}
	}
	w, err := s.works.FindByTBTID(ctx, tbtID)
	if err != nil {
		return nil, wrapWorkErr(err, "get certificate")
	}
	cert := w.Certificate()
	if s.certs != nil {
		s.certs.put(cert)
	}
	return &cert, nil
}

// History lists a work's transfers, oldest first.
func (s *Service) History(ctx context.Context, workID id.WorkID) ([]*models.Transfer, error) {
	w, err := s.works.FindByID(ctx, workID)
	if err != nil {
		return nil, wrapWorkErr(err, "get work")
	}
	viewer, _ := requestcontext.CurrentIdentity(ctx)
	if !canView(w, viewer) {
		return nil, dErrors.New(dErrors.CodeNotFound, "work not found")
	}
	transfers, err := s.transfers.ListByWork(ctx, workID)
	if err != nil {
		return nil, wrapWorkErr(err, "list transfers")
	}
	return transfers, nil
}

func canView(w *models.Work, viewer requestcontext.Identity) bool {
	if viewer.IsAdmin() {
		return true
	}
	if viewer.UserID.IsNil() {
		return false
	}
	return viewer.UserID == w.CurrentOwnerID || viewer.UserID == w.CreatorID
}

func redact(w *models.Work, viewer id.UserID) *models.Work {
	if viewer == w.CurrentOwnerID {
		return w
	}
	cp := *w
	cp.TransferCode = ""
	return &cp
}
