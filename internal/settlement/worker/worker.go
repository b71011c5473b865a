// Package worker drains the settlement outbox. Each due action is executed
// through the bridge behind a per-collaborator circuit breaker and a shared
// rate limit; failures back off exponentially until the attempt budget runs
// out, at which point the action is marked failed and operators are alerted.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"tbt/internal/platform/alert"
	"tbt/internal/platform/tracing"
	"tbt/internal/settlement/bridge"
	"tbt/internal/settlement/metrics"
	"tbt/internal/settlement/models"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/circuit"
	"tbt/pkg/platform/providers"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultBatchSize      = 20
	defaultMaxAttempts    = 8
	defaultBackoffInitial = 5 * time.Second
	defaultBackoffMax     = 10 * time.Minute
	defaultLease          = time.Minute
	defaultActionTimeout  = 30 * time.Second
	defaultCooldown       = 30 * time.Second
	defaultRate           = 10
	defaultBurst          = 5
)

type Store interface {
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Action, error)
	Save(ctx context.Context, a *models.Action) error
}

type Executor interface {
	Execute(ctx context.Context, a *models.Action) (bridge.Result, error)
}

type Worker struct {
	store    Store
	executor Executor
	alerter  alert.Alerter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	limiter  *rate.Limiter
	now      func() time.Time

	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration
	lease          time.Duration
	actionTimeout  time.Duration
	cooldown       time.Duration
	breakerOpts    []circuit.Option
	breakers       map[string]*circuit.Breaker
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithAlerter escalates actions that exhausted their attempts.
func WithAlerter(a alert.Alerter) Option {
	return func(w *Worker) {
		w.alerter = a
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

func WithBackoff(initial, ceiling time.Duration) Option {
	return func(w *Worker) {
		if initial > 0 {
			w.backoffInitial = initial
		}
		if ceiling > 0 {
			w.backoffMax = ceiling
		}
	}
}

func WithActionTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.actionTimeout = d
		}
	}
}

// WithRateLimit caps collaborator calls across all kinds.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(w *Worker) {
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCircuit tunes the per-collaborator breakers. cooldown is also how far
// an action is deferred while its collaborator's circuit is open.
func WithCircuit(failureThreshold int, cooldown time.Duration) Option {
	return func(w *Worker) {
		if cooldown > 0 {
			w.cooldown = cooldown
		}
		w.breakerOpts = append(w.breakerOpts, circuit.WithFailureThreshold(failureThreshold))
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
		w.breakerOpts = append(w.breakerOpts, circuit.WithClock(now))
	}
}

func New(store Store, executor Executor, opts ...Option) (*Worker, error) {
	if store == nil {
		return nil, errors.New("outbox store is required")
	}
	if executor == nil {
		return nil, errors.New("settlement executor is required")
	}
	w := &Worker{
		store:          store,
		executor:       executor,
		logger:         slog.Default(),
		tracer:         tracing.Tracer("tbt/settlement"),
		limiter:        rate.NewLimiter(defaultRate, defaultBurst),
		now:            time.Now,
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		backoffInitial: defaultBackoffInitial,
		backoffMax:     defaultBackoffMax,
		lease:          defaultLease,
		actionTimeout:  defaultActionTimeout,
		cooldown:       defaultCooldown,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.breakers = make(map[string]*circuit.Breaker)
	for _, name := range []string{"ledger", "sms", "email", "events", "works"} {
		bopts := append([]circuit.Option{circuit.WithCooldown(w.cooldown)}, w.breakerOpts...)
		w.breakers[name] = circuit.New("settlement-"+name, bopts...)
	}
	return w, nil
}

// Run polls the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "settlement worker started", "poll_interval", w.pollInterval)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		if _, err := w.ProcessDue(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "settlement poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "settlement worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessDue runs one batch and returns how many actions were attempted.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	actions, err := w.store.ClaimDue(ctx, w.now(), w.batchSize, w.lease)
	if err != nil {
		return 0, fmt.Errorf("claim due actions: %w", err)
	}
	attempted := 0
	for _, a := range actions {
		if ctx.Err() != nil {
			return attempted, ctx.Err()
		}
		ran, err := w.process(ctx, a)
		if err != nil {
			w.logger.ErrorContext(ctx, "settlement action not saved", "action_id", a.ID, "error", err)
		}
		if ran {
			attempted++
		}
	}
	return attempted, nil
}

func (w *Worker) process(ctx context.Context, a *models.Action) (bool, error) {
	name := collaborator(a.Kind)
	breaker := w.breakers[name]
	if !breaker.Allow() {
		a.Defer(w.now().Add(w.cooldown), w.now())
		w.metrics.IncDeferred(string(a.Kind))
		return false, w.store.Save(ctx, a)
	}
	if err := w.wait(ctx); err != nil {
		return false, err
	}

	ctx, span := w.tracer.Start(ctx, "settlement."+string(a.Kind), trace.WithAttributes(
		attribute.String("action_id", a.ID.String()),
		attribute.String("transfer_id", a.TransferID.String()),
		attribute.Int("attempt", a.Attempts+1),
	))
	defer span.End()

	started := time.Now()
	runCtx, cancel := context.WithTimeout(requestcontext.WithTime(ctx, w.now()), w.actionTimeout)
	result, execErr := w.executor.Execute(runCtx, a)
	cancel()
	w.metrics.ObserveDuration(string(a.Kind), time.Since(started).Seconds())

	now := w.now()
	switch {
	case execErr == nil:
		w.recordSuccess(ctx, name, breaker)
		if result.Skipped {
			a.ApplySkipped(result.Outcome, now)
			w.metrics.IncProcessed(string(a.Kind), "skipped")
		} else {
			a.ApplyDone(result.Outcome, now)
			w.metrics.IncProcessed(string(a.Kind), "done")
		}
		span.SetAttributes(attribute.String("outcome", result.Outcome))

	case Retryable(execErr) && a.Attempts+1 < w.maxAttempts:
		w.recordFailure(ctx, name, breaker)
		next := now.Add(w.backoff(a.Attempts + 1))
		a.ApplyRetry(execErr.Error(), next, now)
		w.metrics.IncProcessed(string(a.Kind), "retry")
		span.RecordError(execErr)
		w.logger.WarnContext(ctx, "settlement action failed, will retry",
			"action_id", a.ID,
			"kind", a.Kind,
			"work_id", a.WorkID,
			"attempts", a.Attempts,
			"next_attempt_at", next,
			"error", execErr,
		)

	default:
		if Retryable(execErr) {
			w.recordFailure(ctx, name, breaker)
		} else {
			w.recordSuccess(ctx, name, breaker)
		}
		a.ApplyFailed(execErr.Error(), now)
		w.metrics.IncProcessed(string(a.Kind), "failed")
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		w.logger.ErrorContext(ctx, "settlement action gave up",
			"action_id", a.ID,
			"kind", a.Kind,
			"work_id", a.WorkID,
			"attempts", a.Attempts,
			"error", execErr,
		)
		w.alertFailed(ctx, a)
	}
	return true, w.store.Save(ctx, a)
}

// wait takes one token from the shared limiter.
func (w *Worker) wait(ctx context.Context) error {
	r := w.limiter.Reserve()
	if !r.OK() {
		return errors.New("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// backoff doubles from backoffInitial per attempt, capped at backoffMax.
func (w *Worker) backoff(attempt int) time.Duration {
	d := w.backoffInitial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= w.backoffMax {
			return w.backoffMax
		}
	}
	return d
}

func (w *Worker) recordSuccess(ctx context.Context, name string, b *circuit.Breaker) {
	if _, change := b.RecordSuccess(); change.Closed {
		w.metrics.SetCircuitOpen(name, false)
		w.logger.InfoContext(ctx, "settlement collaborator recovered", "collaborator", name)
	}
}

func (w *Worker) recordFailure(ctx context.Context, name string, b *circuit.Breaker) {
	if _, change := b.RecordFailure(); change.Opened {
		w.metrics.SetCircuitOpen(name, true)
		w.logger.WarnContext(ctx, "settlement collaborator circuit opened",
			"collaborator", name, "cooldown", w.cooldown)
	}
}

func (w *Worker) alertFailed(ctx context.Context, a *models.Action) {
	if w.alerter == nil {
		return
	}
	err := w.alerter.Send(ctx, alert.Alert{
		Type:    alert.TypeSettlementFailed,
		Subject: a.TransferID.String() + "/" + string(a.Kind),
		Title:   "Settlement action failed",
		Message: fmt.Sprintf("%s for %s gave up after %d attempts", a.Kind, a.Payload.TBTID, a.Attempts),
		Fields: map[string]string{
			"transfer_id": a.TransferID.String(),
			"work_id":     a.WorkID.String(),
			"kind":        string(a.Kind),
			"attempts":    strconv.Itoa(a.Attempts),
			"error":       a.LastError,
		},
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "settlement alert not sent", "action_id", a.ID, "error", err)
	}
}

// collaborator names the downstream system an action depends on.
func collaborator(kind models.Kind) string {
	switch kind {
	case models.KindLedgerTransfer:
		return "ledger"
	case models.KindNotifySMS:
		return "sms"
	case models.KindNotifyEmail:
		return "email"
	case models.KindPublishEvent:
		return "events"
	default:
		return "works"
	}
}

// Retryable reports whether a failed action may succeed on a later attempt.
// Collaborator errors carry their own classification; domain rejections are
// permanent; anything else (database, network) is assumed transient.
func Retryable(err error) bool {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if de, ok := dErrors.As(err); ok {
		return de.Code == dErrors.CodeInternal || de.Code == dErrors.CodeTimeout
	}
	return true
}
