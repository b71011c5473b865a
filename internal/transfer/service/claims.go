package service

import (
	"context"
	"errors"

	"tbt/internal/identity"
	"tbt/internal/transfer/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/middleware/metadata"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

// SubmitCode claims the work behind raw for the caller and opens a claim
// carrying the commercial snapshot. Re-entering a code the caller already
// redeemed returns the completed claim; re-entering a code the caller holds
// resumes the open claim.
func (s *Service) SubmitCode(ctx context.Context, raw string) (result *models.Claim, err error) {
	ctx, span := s.startSpan(ctx, "transfer.submit_code")
	defer func() { endSpan(span, err) }()

	claimant := requestcontext.UserID(ctx)
	if claimant.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	done, err := s.completedClaim(ctx, claimant, raw)
	if err != nil {
		return nil, err
	}
	if done != nil {
		s.metrics.IncCodeSubmission("completed")
		return done, nil
	}

	var resumed, tookOver bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.works.MarkPending(ctx, raw, claimant)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		ttl := s.works.PendingTTL()

		open, err := s.claims.FindOpenByWork(ctx, w.ID)
		switch {
		case err == nil && open.ClaimantID == claimant && open.TransferCode == w.TransferCode:
			result, err = s.claims.Execute(ctx, open.ID, requireOpenStage, func(c *models.Claim) {
				c.Extend(now, ttl)
			})
			resumed = true
			return err
		case err == nil:
			// The work was handed over, so the previous hold had gone stale.
			if _, err := s.claims.Execute(ctx, open.ID, requireOpenStage, func(c *models.Claim) {
				c.ApplyExpire(now)
			}); err != nil {
				return err
			}
			tookOver = true
		case !errors.Is(err, sentinel.ErrNotFound):
			return err
		}

		device := metadata.DeviceLabel(requestcontext.UserAgent(ctx))
		result = models.NewClaim(w.ID, claimant, w.TransferCode, models.SnapshotOf(w), s.fee, device, now, ttl)
		return s.claims.Create(ctx, result)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCode) {
			s.metrics.IncCodeSubmission("invalid")
		}
		return nil, wrapClaimErr(err, "claim transfer code")
	}

	s.metrics.IncCodeSubmission("claimed")
	if resumed {
		s.metrics.IncClaimsResumed()
	}
	if tookOver {
		s.metrics.IncStaleTakeovers()
		s.metrics.IncClaimsClosed("expired")
	}
	s.logger.InfoContext(ctx, "transfer code claimed",
		"claim_id", result.ID.String(),
		"work_id", result.WorkID.String(),
		"resumed", resumed,
		"took_over", tookOver,
	)
	return result, nil
}

// completedClaim finds a claim the caller already completed with this code.
func (s *Service) completedClaim(ctx context.Context, claimant id.UserID, raw string) (*models.Claim, error) {
	for _, code := range identity.CodeCandidates(raw) {
		c, err := s.claims.FindCompletedByCode(ctx, claimant, code)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapClaimErr(err, "look up completed claim")
		}
	}
	return nil, nil
}

// DetailsCommand carries the new owner's details as typed by the claimant.
type DetailsCommand struct {
	Name              string
	Phone             string
	PhoneConfirmation string
}

// SubmitDetails records who receives the work. Invalid details leave the
// claim untouched. Details can be corrected until payment succeeds.
func (s *Service) SubmitDetails(ctx context.Context, claimID id.ClaimID, cmd DetailsCommand) (result *models.Claim, err error) {
	ctx, span := s.startSpan(ctx, "transfer.submit_details")
	defer func() { endSpan(span, err) }()

	c, claimant, err := s.ownedClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	name, phone, err := models.ValidateDetails(cmd.Name, cmd.Phone, cmd.PhoneConfirmation)
	if err != nil {
		return nil, err
	}
	if err := requireOpenStage(c); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	return s.refreshHold(ctx, c, claimant, func(c *models.Claim) {
		c.ApplyDetails(name, phone, now)
	})
}

// Cancel abandons an unpaid claim and frees the work for other claimants.
// Cancelling a closed claim is a no-op.
func (s *Service) Cancel(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	c, claimant, err := s.ownedClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Stage == models.StageCancelled || c.Stage == models.StageExpired:
		return c, nil
	case c.Stage == models.StageComplete || c.PaymentStatus == models.PaymentPaid:
		return nil, dErrors.New(dErrors.CodeConflict, "claim can no longer be cancelled")
	}

	now := requestcontext.Now(ctx)
	var cancelled *models.Claim
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		cancelled, err = s.claims.Execute(ctx, c.ID, requireOpenStage, func(c *models.Claim) {
			c.ApplyCancel(now)
		})
		if err != nil {
			return err
		}
		// A hold that was already lost needs no release.
		if err := s.works.MarkActive(ctx, c.WorkID, claimant); err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapClaimErr(err, "cancel claim")
	}

	s.metrics.IncClaimsClosed("cancelled")
	s.logger.InfoContext(ctx, "claim cancelled",
		"claim_id", c.ID.String(),
		"work_id", c.WorkID.String(),
	)
	return cancelled, nil
}

// refreshHold confirms the caller still holds the work, restarts both
// expiries and applies mutate to the claim in one unit of work. A lost hold
// expires the claim.
func (s *Service) refreshHold(ctx context.Context, c *models.Claim, claimant id.UserID, mutate func(*models.Claim)) (*models.Claim, error) {
	var updated *models.Claim
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.works.RefreshClaim(ctx, c.WorkID, claimant); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		ttl := s.works.PendingTTL()
		var err error
		updated, err = s.claims.Execute(ctx, c.ID, requireUnpaid, func(c *models.Claim) {
			mutate(c)
			c.Extend(now, ttl)
		})
		return err
	})
	if dErrors.HasCode(err, dErrors.CodeInvalidCode) {
		s.expireLost(ctx, c)
		return nil, claimExpired()
	}
	if err != nil {
		return nil, wrapClaimErr(err, "update claim")
	}
	return updated, nil
}

// expireLost closes a claim whose hold on the work was taken over or reaped.
func (s *Service) expireLost(ctx context.Context, c *models.Claim) {
	now := requestcontext.Now(ctx)
	_, err := s.claims.Execute(ctx, c.ID, requireOpenStage, func(c *models.Claim) {
		c.ApplyExpire(now)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to expire claim after losing hold",
			"claim_id", c.ID.String(),
			"error", err,
		)
		return
	}
	s.metrics.IncClaimsClosed("expired")
}

func requireOpenStage(c *models.Claim) error {
	switch c.Stage {
	case models.StageDetails, models.StagePayment:
		return nil
	case models.StageComplete:
		return dErrors.New(dErrors.CodeConflict, "claim is already complete")
	case models.StageCancelled:
		return dErrors.New(dErrors.CodeConflict, "claim was cancelled")
	default:
		return claimExpired()
	}
}

func requireUnpaid(c *models.Claim) error {
	if err := requireOpenStage(c); err != nil {
		return err
	}
	if c.PaymentStatus == models.PaymentPaid {
		return dErrors.New(dErrors.CodeConflict, "payment was already taken")
	}
	return nil
}
