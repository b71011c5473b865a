package service

import (
	"context"
	"time"

	"tbt/internal/payment"
	"tbt/internal/platform/alert"
	"tbt/internal/transfer/models"
	workmodels "tbt/internal/work/models"
	workservice "tbt/internal/work/service"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/providers"
	"tbt/pkg/requestcontext"
)

// Pay charges the transfer fee and, once the charge succeeds, commits the
// ownership change. A declined charge leaves the claim in the payment stage
// and touches neither the work nor the transfer log. Paying a completed
// claim again returns the completion.
func (s *Service) Pay(ctx context.Context, claimID id.ClaimID) (result *models.Claim, err error) {
	ctx, span := s.startSpan(ctx, "transfer.pay")
	defer func() { endSpan(span, err) }()

	c, claimant, err := s.ownedClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.Stage == models.StageComplete {
		return c, nil
	}
	if err := requireOpenStage(c); err != nil {
		return nil, err
	}
	if c.Stage == models.StageDetails {
		return nil, dErrors.New(dErrors.CodeValidation, "new owner details are required before payment")
	}

	// Keep the hold for the length of the charge.
	c, err = s.refreshHold(ctx, c, claimant, func(*models.Claim) {})
	if err != nil {
		return nil, err
	}

	charge, err := s.payments.Charge(ctx, payment.ChargeRequest{
		AmountMinor:    c.Fee.AmountMinor,
		Currency:       c.Fee.Currency,
		IdempotencyKey: c.ID.String(),
		Description:    "Ownership transfer fee for " + c.Snapshot.TBTID,
	})
	if err != nil {
		return nil, s.recordPaymentFailure(ctx, c, err)
	}
	s.metrics.IncPayment("succeeded")

	started := time.Now()
	done, err := s.commit(ctx, c, claimant, charge.Reference)
	if err != nil {
		return s.handleCommitFailure(ctx, c, claimant, charge.Reference, err)
	}
	s.metrics.ObserveCommitDuration(time.Since(started).Seconds())
	return done, nil
}

func (s *Service) recordPaymentFailure(ctx context.Context, c *models.Claim, cause error) error {
	reason := paymentFailureReason(cause)
	now := requestcontext.Now(ctx)
	if _, err := s.claims.Execute(ctx, c.ID, requireUnpaid, func(c *models.Claim) {
		c.ApplyPaymentFailure(reason, now)
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record payment failure",
			"claim_id", c.ID.String(),
			"error", err,
		)
	}
	s.metrics.IncPayment("failed")
	s.logger.WarnContext(ctx, "transfer fee charge failed",
		"claim_id", c.ID.String(),
		"work_id", c.WorkID.String(),
		"category", string(providers.GetCategory(cause)),
		"error", cause,
	)
	return dErrors.Wrap(cause, dErrors.CodePaymentFailed, reason)
}

func paymentFailureReason(err error) string {
	switch providers.GetCategory(err) {
	case providers.ErrorRejected:
		return "payment was declined"
	case providers.ErrorTimeout, providers.ErrorOutage, providers.ErrorRateLimited:
		return "payment provider is unavailable, try again shortly"
	default:
		return "payment could not be processed"
	}
}

// commit writes the transfer row, the ownership change, the completed claim
// and the settlement actions in one transaction, then rotates the code in a
// second one. A failed rotation is left to the queued rotate action.
func (s *Service) commit(ctx context.Context, c *models.Claim, claimant id.UserID, reference string) (*models.Claim, error) {
	ctx, span := s.startSpan(ctx, "transfer.commit")
	var (
		done     *models.Claim
		transfer *workmodels.Transfer
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		t, w, err := s.works.RecordTransfer(ctx, workservice.RecordTransferCommand{
			WorkID:           c.WorkID,
			Claimant:         claimant,
			TransferCode:     c.TransferCode,
			NewOwnerName:     c.NewOwnerName,
			NewOwnerPhone:    c.NewOwnerPhone,
			PaymentReference: reference,
		})
		if err != nil {
			return err
		}
		done, err = s.claims.Execute(ctx, c.ID, requireUnpaid, func(c *models.Claim) {
			c.ApplyPaid(reference, now)
			c.ApplyComplete(t.ID, now)
		})
		if err != nil {
			return err
		}
		transfer = t
		return s.settlement.Schedule(ctx, workmodels.OwnershipChanged{Transfer: t, Work: w})
	})
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	if _, err := s.works.RotateCode(ctx, c.WorkID); err != nil {
		s.logger.WarnContext(ctx, "code rotation after transfer failed, settlement will retry",
			"work_id", c.WorkID.String(),
			"error", err,
		)
	}

	s.metrics.IncCommit("committed")
	s.logger.InfoContext(ctx, "ownership transferred",
		"claim_id", c.ID.String(),
		"work_id", c.WorkID.String(),
		"transfer_id", transfer.ID.String(),
		"tbt_id", c.Snapshot.TBTID,
	)
	return done, nil
}

// handleCommitFailure compensates a charge whose ownership change did not
// commit: refund, alert, release the hold and close the claim.
func (s *Service) handleCommitFailure(ctx context.Context, c *models.Claim, claimant id.UserID, reference string, cause error) (*models.Claim, error) {
	ctx = context.WithoutCancel(ctx)

	// A concurrent payment of the same claim may have committed first.
	if current, err := s.claims.FindByID(ctx, c.ID); err == nil && current.Stage == models.StageComplete {
		return current, nil
	}

	s.metrics.IncCommit("failed")
	s.logger.ErrorContext(ctx, "ownership commit failed after payment",
		"claim_id", c.ID.String(),
		"work_id", c.WorkID.String(),
		"payment_reference", reference,
		"error", cause,
	)

	refundErr := s.payments.Refund(ctx, reference, "ownership change could not be completed")
	refunded := refundErr == nil
	if refunded {
		s.metrics.IncRefund("refunded")
	} else {
		s.metrics.IncRefund("failed")
		s.logger.ErrorContext(ctx, "refund after failed commit failed",
			"claim_id", c.ID.String(),
			"payment_reference", reference,
			"error", refundErr,
		)
	}
	s.alertCommitFailure(ctx, c, reference, cause, refundErr)

	if err := s.works.MarkActive(ctx, c.WorkID, claimant); err != nil {
		s.logger.WarnContext(ctx, "failed to release work after failed commit",
			"work_id", c.WorkID.String(),
			"error", err,
		)
	}

	now := requestcontext.Now(ctx)
	if _, err := s.claims.Execute(ctx, c.ID, requireOpenStage, func(c *models.Claim) {
		c.ApplyPaid(reference, now)
		c.ApplyCommitFailure(refunded, "ownership change failed", now)
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to close claim after failed commit",
			"claim_id", c.ID.String(),
			"error", err,
		)
	}

	msg := "transfer could not be completed, your payment has been refunded"
	if !refunded {
		msg = "transfer could not be completed, support has been notified to refund your payment"
	}
	return nil, dErrors.Wrap(cause, dErrors.CodeCommitFailed, msg)
}

func (s *Service) alertCommitFailure(ctx context.Context, c *models.Claim, reference string, cause, refundErr error) {
	if s.alerter == nil {
		return
	}
	a := alert.Alert{
		Type:    alert.TypeCommitFailed,
		Subject: c.ID.String(),
		Title:   "Transfer commit failed after payment",
		Message: cause.Error(),
		Fields: map[string]string{
			"claim_id":          c.ID.String(),
			"work_id":           c.WorkID.String(),
			"tbt_id":            c.Snapshot.TBTID,
			"payment_reference": reference,
			"refund":            "refunded",
		},
	}
	if refundErr != nil {
		a.Type = alert.TypeRefundFailed
		a.Title = "Refund failed after transfer commit failure"
		a.Fields["refund"] = "failed: " + refundErr.Error()
	}
	if err := s.alerter.Send(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to send operator alert",
			"claim_id", c.ID.String(),
			"error", err,
		)
	}
}
