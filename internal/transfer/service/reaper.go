package service

import (
	"context"
	"time"

	"tbt/internal/transfer/models"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

// ExpireAbandoned closes open claims past their expiry and releases their
// works. It returns how many claims were expired.
func (s *Service) ExpireAbandoned(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	expired, err := s.claims.ListExpired(ctx, now, reapBatchSize)
	if err != nil {
		return 0, wrapClaimErr(err, "list expired claims")
	}

	count := 0
	for _, c := range expired {
		if err := s.expireClaim(ctx, c, now); err != nil {
			s.logger.WarnContext(ctx, "failed to expire claim",
				"claim_id", c.ID.String(),
				"error", err,
			)
			continue
		}
		count++
		s.metrics.IncClaimsClosed("expired")
	}

	// Works left pending without an open claim are released by age.
	if _, err := s.works.ReleaseExpired(ctx); err != nil {
		return count, err
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "expired abandoned claims", "count", count)
	}
	return count, nil
}

func (s *Service) expireClaim(ctx context.Context, c *models.Claim, now time.Time) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.claims.Execute(ctx, c.ID,
			func(c *models.Claim) error {
				if !c.IsExpired(now) {
					return sentinel.ErrInvalidState
				}
				return nil
			},
			func(c *models.Claim) {
				c.ApplyExpire(now)
			},
		)
		if err != nil {
			return err
		}
		if err := s.works.MarkActive(ctx, c.WorkID, c.ClaimantID); err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return nil
	})
}

// RunReaper expires abandoned claims every interval until ctx is cancelled.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.ExpireAbandoned(ctx); err != nil {
				s.logger.ErrorContext(ctx, "claim reaper failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
