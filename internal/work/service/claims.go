package service

import (
	"context"
	"errors"

	"tbt/internal/identity"
	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

// FindByCode resolves raw user input to an active work. The literal form is
// tried first, then the hyphenated form of a bare eight-symbol string.
func (s *Service) FindByCode(ctx context.Context, raw string) (*models.Work, error) {
	for _, code := range identity.CodeCandidates(raw) {
		w, err := s.works.FindActiveByCode(ctx, code)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapWorkErr(err, "look up transfer code")
		}
	}
	return nil, invalidCode()
}

// MarkPending claims the work behind raw for claimant with a storage-level
// compare-and-swap. Losing a race and presenting a used code look the same.
func (s *Service) MarkPending(ctx context.Context, raw string, claimant id.UserID) (*models.Work, error) {
	now := requestcontext.Now(ctx)
	staleBefore := now.Add(-s.pendingTTL)
	for _, code := range identity.CodeCandidates(raw) {
		w, err := s.works.ClaimByCode(ctx, code, claimant, now, staleBefore)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapWorkErr(err, "claim transfer code")
		}
	}
	return nil, invalidCode()
}

// RefreshClaim confirms claimant still holds the work and restarts its TTL.
func (s *Service) RefreshClaim(ctx context.Context, workID id.WorkID, claimant id.UserID) (*models.Work, error) {
	now := requestcontext.Now(ctx)
	w, err := s.works.Execute(ctx, workID,
		func(w *models.Work) error {
			if !w.IsHeldBy(claimant) {
				return invalidCode()
			}
			return nil
		},
		func(w *models.Work) {
			w.ClaimedAt = now
			w.UpdatedAt = now
		},
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, invalidCode()
	}
	return w, wrapWorkErr(err, "refresh claim")
}

// MarkActive releases claimant's pending claim. A claim that was already
// released or taken over is reported as a conflict.
func (s *Service) MarkActive(ctx context.Context, workID id.WorkID, claimant id.UserID) error {
	now := requestcontext.Now(ctx)
	_, err := s.works.Execute(ctx, workID,
		func(w *models.Work) error {
			if !w.IsHeldBy(claimant) {
				return dErrors.New(dErrors.CodeConflict, "claim is no longer held")
			}
			return nil
		},
		func(w *models.Work) {
			w.ApplyRelease(now)
		},
	)
	return wrapWorkErr(err, "release claim")
}

// ReleaseExpired reverts every pending claim older than the TTL to active.
func (s *Service) ReleaseExpired(ctx context.Context) ([]id.WorkID, error) {
	now := requestcontext.Now(ctx)
	released, err := s.works.ReleaseExpired(ctx, now.Add(-s.pendingTTL), now)
	if err != nil {
		return nil, wrapWorkErr(err, "release expired claims")
	}
	if len(released) > 0 {
		s.logger.InfoContext(ctx, "released expired claims", "count", len(released))
	}
	return released, nil
}

// RecordTransferCommand describes a paid code claim ready to commit.
type RecordTransferCommand struct {
	WorkID           id.WorkID
	Claimant         id.UserID
	TransferCode     string
	NewOwnerName     string
	NewOwnerPhone    string
	PaymentReference string
}

// RecordTransfer moves ownership to the claimant and appends the audit row in
// one transaction. The work is left transferred; RotateCode re-arms it.
// A code already in the log is rejected before the work is touched, so the
// memory runner never sees an ownership change without its audit row.
func (s *Service) RecordTransfer(ctx context.Context, cmd RecordTransferCommand) (*models.Transfer, *models.Work, error) {
	var (
		transfer *models.Transfer
		updated  *models.Work
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		consumed, err := s.codeConsumed(ctx, cmd.WorkID, cmd.TransferCode)
		if err != nil {
			return err
		}
		if consumed {
			return dErrors.New(dErrors.CodeConflict, "transfer code was already used for this work")
		}

		var previousOwner id.UserID
		w, err := s.works.Execute(ctx, cmd.WorkID,
			func(w *models.Work) error {
				if !w.IsHeldBy(cmd.Claimant) || w.TransferCode != cmd.TransferCode {
					return dErrors.New(dErrors.CodeConflict, "claim is no longer held")
				}
				previousOwner = w.CurrentOwnerID
				return nil
			},
			func(w *models.Work) {
				w.ApplyTransfer(now)
			},
		)
		if err != nil {
			return err
		}

		t := &models.Transfer{
			ID:               id.NewTransferID(),
			WorkID:           w.ID,
			FromOwnerID:      previousOwner,
			ToOwnerID:        cmd.Claimant,
			Type:             models.TransferManual,
			TransferCode:     cmd.TransferCode,
			NewOwnerName:     cmd.NewOwnerName,
			NewOwnerPhone:    cmd.NewOwnerPhone,
			PaymentStatus:    models.PaymentPaid,
			PaymentReference: cmd.PaymentReference,
			CompletedAt:      now,
		}
		if err := s.transfers.Append(ctx, t); err != nil {
			return err
		}
		transfer, updated = t, w
		return nil
	})
	if err != nil {
		return nil, nil, wrapWorkErr(err, "record transfer")
	}
	s.evictCertificate(updated.TBTID)
	return transfer, updated, nil
}

func (s *Service) codeConsumed(ctx context.Context, workID id.WorkID, code string) (bool, error) {
	history, err := s.transfers.ListByWork(ctx, workID)
	if err != nil {
		return false, err
	}
	for _, t := range history {
		if t.TransferCode == code {
			return true, nil
		}
	}
	return false, nil
}

// RotateCode re-arms a transferred work with a fresh code. A work that is
// active or pending already carries a rotated code and is returned unchanged,
// so retries are safe even after the new code has been claimed.
func (s *Service) RotateCode(ctx context.Context, workID id.WorkID) (*models.Work, error) {
	var lastErr error
	for range maxCodeAttempts {
		code, err := s.codes.TransferCode()
		if err != nil {
			return nil, wrapWorkErr(err, "generate transfer code")
		}

		alreadyRotated := false
		now := requestcontext.Now(ctx)
		w, err := s.works.Execute(ctx, workID,
			func(w *models.Work) error {
				switch w.Status {
				case models.StatusTransferred:
					return nil
				case models.StatusActive, models.StatusPending:
					alreadyRotated = true
					return sentinel.ErrInvalidState
				default:
					return sentinel.ErrInvalidState
				}
			},
			func(w *models.Work) {
				w.ApplyRotation(code, now)
			},
		)
		switch {
		case err == nil:
			s.metrics.IncCodeRotations()
			return w, nil
		case alreadyRotated:
			return s.works.FindByID(ctx, workID)
		case errors.Is(err, sentinel.ErrConflict):
			s.metrics.IncCodeCollisions()
			lastErr = err
			continue
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "work is not awaiting rotation")
		default:
			s.metrics.IncCodeRotationFailures()
			return nil, wrapWorkErr(err, "rotate transfer code")
		}
	}
	s.metrics.IncCodeRotationFailures()
	return nil, wrapWorkErr(lastErr, "rotate transfer code")
}
