package bridge

import (
	"context"
	"errors"
	"log/slog"

	"tbt/internal/settlement/metrics"
	"tbt/internal/settlement/models"
	transfermodels "tbt/internal/transfer/models"
	workmodels "tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/requestcontext"
)

type Outbox interface {
	Enqueue(ctx context.Context, actions []*models.Action) error
	ListByTransfer(ctx context.Context, transferID id.TransferID, kinds ...models.Kind) ([]*models.Action, error)
}

// Scheduler queues the settlement actions of a committed transfer. It is
// called inside the commit's transaction, so the actions exist if and only
// if the ownership change does.
type Scheduler struct {
	outbox  Outbox
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type SchedulerOption func(*Scheduler)

func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithSchedulerMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func NewScheduler(outbox Outbox, opts ...SchedulerOption) (*Scheduler, error) {
	if outbox == nil {
		return nil, errors.New("outbox store is required")
	}
	s := &Scheduler{outbox: outbox, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) Schedule(ctx context.Context, change workmodels.OwnershipChanged) error {
	if change.Transfer == nil || change.Work == nil {
		return errors.New("ownership change is missing its transfer or work")
	}
	kinds := []models.Kind{
		models.KindLedgerTransfer,
		models.KindNotifySMS,
		models.KindNotifyEmail,
		models.KindPublishEvent,
	}
	if !change.CodeRotated {
		kinds = append(kinds, models.KindRotateCode)
	}

	now := requestcontext.Now(ctx)
	payload := PayloadOf(change)
	actions := make([]*models.Action, len(kinds))
	for i, k := range kinds {
		actions[i] = models.NewAction(change.Transfer.ID, change.Work.ID, k, payload, now)
	}
	if err := s.outbox.Enqueue(ctx, actions); err != nil {
		return err
	}
	for _, k := range kinds {
		s.metrics.IncScheduled(string(k))
	}
	s.logger.InfoContext(ctx, "settlement scheduled",
		"transfer_id", change.Transfer.ID, "work_id", change.Work.ID, "actions", len(actions))
	return nil
}

// Warnings lists the transfer's settlement problems for the claimant.
func (s *Scheduler) Warnings(ctx context.Context, transferID id.TransferID) ([]transfermodels.Warning, error) {
	actions, err := s.outbox.ListByTransfer(ctx, transferID,
		models.KindLedgerTransfer, models.KindNotifySMS, models.KindNotifyEmail)
	if err != nil {
		return nil, err
	}
	var out []transfermodels.Warning
	for _, a := range actions {
		if a.HasWarning() {
			out = append(out, a.Warning())
		}
	}
	return out, nil
}
