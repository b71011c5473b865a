package service

import (
	"context"
	"errors"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

// Gift hands the work to another user without payment. Only the current
// owner may gift, and only while no claim is in progress.
func (s *Service) Gift(ctx context.Context, workID id.WorkID, to id.UserID) (*models.Transfer, error) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.reassign(ctx, workID, to, models.TransferGift, func(w *models.Work) error {
		if w.CurrentOwnerID != actor {
			return dErrors.New(dErrors.CodeForbidden, "only the owner can gift this work")
		}
		return nil
	})
}

// AdminReassign is the support path for ownership corrections.
func (s *Service) AdminReassign(ctx context.Context, workID id.WorkID, to id.UserID) (*models.Transfer, error) {
	ident, ok := requestcontext.CurrentIdentity(ctx)
	if !ok || !ident.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	t, err := s.reassign(ctx, workID, to, models.TransferAutomatic, func(*models.Work) error { return nil })
	if err != nil {
		return nil, err
	}
	s.logger.WarnContext(ctx, "work reassigned by admin",
		"work_id", workID.String(),
		"admin_id", ident.UserID.String(),
		"from_owner_id", t.FromOwnerID.String(),
		"to_owner_id", t.ToOwnerID.String(),
	)
	return t, nil
}

// AdminRotate re-arms a work left transferred after a failed rotation.
func (s *Service) AdminRotate(ctx context.Context, workID id.WorkID) (*models.Work, error) {
	ident, ok := requestcontext.CurrentIdentity(ctx)
	if !ok || !ident.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return s.RotateCode(ctx, workID)
}

func (s *Service) reassign(ctx context.Context, workID id.WorkID, to id.UserID, kind models.TransferType, authorize func(*models.Work) error) (*models.Transfer, error) {
	if to.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "new owner is required")
	}
	known, err := s.profiles.Exists(ctx, to)
	if err != nil {
		return nil, wrapWorkErr(err, "look up recipient")
	}
	if !known {
		return nil, dErrors.New(dErrors.CodeValidation, "recipient has no profile")
	}

	var lastErr error
	for range maxCodeAttempts {
		t, err := s.reassignOnce(ctx, workID, to, kind, authorize)
		if err == nil {
			s.metrics.IncReassignments(string(kind))
			return t, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, wrapWorkErr(err, "reassign work")
		}
		s.metrics.IncCodeCollisions()
		lastErr = err
	}
	return nil, wrapWorkErr(lastErr, "reassign work")
}

// reassignOnce changes owner, rotates the code, appends the log row and
// schedules settlement in one transaction.
func (s *Service) reassignOnce(ctx context.Context, workID id.WorkID, to id.UserID, kind models.TransferType, authorize func(*models.Work) error) (*models.Transfer, error) {
	code, err := s.codes.TransferCode()
	if err != nil {
		return nil, err
	}
	var (
		transfer *models.Transfer
		tbtID    string
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		var previousOwner id.UserID
		var previousCode string
		w, err := s.works.Execute(ctx, workID,
			func(w *models.Work) error {
				if err := authorize(w); err != nil {
					return err
				}
				if err := w.CanReassign(to); err != nil {
					return err
				}
				if w.Status != models.StatusActive {
					return dErrors.New(dErrors.CodeInvariantViolation, "transfer code rotation is pending")
				}
				previousOwner = w.CurrentOwnerID
				previousCode = w.TransferCode
				return nil
			},
			func(w *models.Work) {
				w.ApplyReassign(to, code, now)
			},
		)
		if err != nil {
			return err
		}

		t := &models.Transfer{
			ID:            id.NewTransferID(),
			WorkID:        w.ID,
			FromOwnerID:   previousOwner,
			ToOwnerID:     to,
			Type:          kind,
			TransferCode:  previousCode,
			PaymentStatus: models.PaymentWaived,
			CompletedAt:   now,
		}
		if err := s.transfers.Append(ctx, t); err != nil {
			return err
		}
		if err := s.settlement.Schedule(ctx, models.OwnershipChanged{Transfer: t, Work: w, CodeRotated: true}); err != nil {
			return err
		}
		transfer = t
		tbtID = w.TBTID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.evictCertificate(tbtID)
	return transfer, nil
}
