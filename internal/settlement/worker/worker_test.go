package worker

//go:generate mockgen -source=worker.go -destination=mocks/mocks.go -package=mocks Executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tbt/internal/platform/alert"
	"tbt/internal/settlement/bridge"
	"tbt/internal/settlement/metrics"
	"tbt/internal/settlement/models"
	"tbt/internal/settlement/store/outbox"
	"tbt/internal/settlement/worker/mocks"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/providers"
	"tbt/pkg/platform/sentinel"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (r *recordingAlerter) Send(_ context.Context, a alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

// =============================================================================
// Worker Test Suite
// =============================================================================
// Justification for unit tests: retry timing, circuit deferral and the give-up
// path are decided by the worker alone. The executor is mocked and the clock
// is fixed so backoff arithmetic is exact.

type WorkerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	executor *mocks.MockExecutor
	store    *outbox.InMemory
	alerter  *recordingAlerter
	metrics  *metrics.Metrics
	worker   *Worker
	now      time.Time
	ctx      context.Context
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.executor = mocks.NewMockExecutor(s.ctrl)
	s.store = outbox.NewInMemory()
	s.alerter = &recordingAlerter{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = context.Background()
	s.worker = s.newWorker()
}

func (s *WorkerSuite) newWorker(opts ...Option) *Worker {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAlerter(s.alerter),
		WithClock(func() time.Time { return s.now }),
		WithMaxAttempts(3),
		WithBackoff(10*time.Second, 25*time.Second),
		WithCircuit(2, time.Minute),
		WithRateLimit(1000, 100),
	}
	w, err := New(s.store, s.executor, append(base, opts...)...)
	s.Require().NoError(err)
	return w
}

func (s *WorkerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *WorkerSuite) enqueue(kind models.Kind) *models.Action {
	a := models.NewAction(id.NewTransferID(), id.NewWorkID(), kind, models.Payload{TBTID: "TBT-2026-AB3D7K"}, s.now)
	s.Require().NoError(s.store.Enqueue(s.ctx, []*models.Action{a}))
	return a
}

func (s *WorkerSuite) stored(a *models.Action) *models.Action {
	list, err := s.store.ListByTransfer(s.ctx, a.TransferID, a.Kind)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	return list[0]
}

func outage() error {
	return providers.NewProviderError(providers.ErrorOutage, "sms", "status 503", nil)
}

// =============================================================================
// Outcomes
// =============================================================================

func (s *WorkerSuite) TestSuccessAndSkip() {
	sent := s.enqueue(models.KindNotifySMS)
	noToken := s.enqueue(models.KindLedgerTransfer)
	s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *models.Action) (bridge.Result, error) {
			if a.Kind == models.KindLedgerTransfer {
				return bridge.Result{Skipped: true, Outcome: models.OutcomeNoToken}, nil
			}
			return bridge.Result{Outcome: "msg-1"}, nil
		}).Times(2)

	n, err := s.worker.ProcessDue(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Equal(models.StatusDone, s.stored(sent).Status)
	s.Equal("msg-1", s.stored(sent).Outcome)
	s.Equal(models.StatusSkipped, s.stored(noToken).Status)
	s.Equal("no token to transfer", s.stored(noToken).Outcome)
	s.Empty(s.alerter.alerts)
}

// Justification: a flaky collaborator must be retried later with growing
// delays, and the action stays visible as a warning meanwhile.
func (s *WorkerSuite) TestRetryableFailureBacksOff() {
	a := s.enqueue(models.KindNotifySMS)
	s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(bridge.Result{}, outage())

	_, err := s.worker.ProcessDue(s.ctx)
	s.Require().NoError(err)

	got := s.stored(a)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(1, got.Attempts)
	s.Contains(got.LastError, "status 503")
	s.Equal(s.now.Add(10*time.Second), got.NextAttemptAt)
	s.True(got.HasWarning())

	s.Run("not due before the backoff elapses", func() {
		n, err := s.worker.ProcessDue(s.ctx)
		s.Require().NoError(err)
		s.Zero(n)
	})

	s.Run("second failure doubles the delay", func() {
		s.now = s.now.Add(10 * time.Second)
		s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(bridge.Result{}, outage())
		_, err := s.worker.ProcessDue(s.ctx)
		s.Require().NoError(err)
		s.Equal(s.now.Add(20*time.Second), s.stored(a).NextAttemptAt)
	})
}

func (s *WorkerSuite) TestGivesUpAfterMaxAttemptsAndAlerts() {
	a := s.enqueue(models.KindLedgerTransfer)
	s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(bridge.Result{}, outage()).Times(3)

	for range 3 {
		_, err := s.worker.ProcessDue(s.ctx)
		s.Require().NoError(err)
		s.now = s.now.Add(time.Hour)
		// keep the breaker from deferring between attempts
		s.worker.breakers["ledger"].Reset()
	}

	got := s.stored(a)
	s.Equal(models.StatusFailed, got.Status)
	s.Equal(3, got.Attempts)
	s.Require().Len(s.alerter.alerts, 1)
	s.Equal(alert.TypeSettlementFailed, s.alerter.alerts[0].Type)
	s.Equal("ledger_transfer", s.alerter.alerts[0].Fields["kind"])
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ActionsProcessed.WithLabelValues("ledger_transfer", "failed")))
}

func (s *WorkerSuite) TestPermanentFailureIsNotRetried() {
	a := s.enqueue(models.KindNotifyEmail)
	s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(bridge.Result{},
		providers.NewProviderError(providers.ErrorRejected, "email", "address bounced", nil))

	_, err := s.worker.ProcessDue(s.ctx)
	s.Require().NoError(err)

	got := s.stored(a)
	s.Equal(models.StatusFailed, got.Status)
	s.Equal(1, got.Attempts)
	s.Len(s.alerter.alerts, 1)
}

// =============================================================================
// Circuit breaker
// =============================================================================

// Justification: while a collaborator is down its actions are deferred
// without burning attempts; other collaborators keep flowing.
func (s *WorkerSuite) TestOpenCircuitDefersActions() {
	first := s.enqueue(models.KindNotifySMS)
	second := s.enqueue(models.KindNotifySMS)
	s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(bridge.Result{}, outage()).Times(2)

	_, err := s.worker.ProcessDue(s.ctx)
	s.Require().NoError(err)
	s.True(s.worker.breakers["sms"].IsOpen())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitState.WithLabelValues("sms")))

	s.now = s.now.Add(10 * time.Second)
	third := s.enqueue(models.KindNotifySMS)
	email := s.enqueue(models.KindNotifyEmail)
	s.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(bridge.Result{Outcome: "email-1"}, nil)

	n, err := s.worker.ProcessDue(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n, "only the email action runs")

	deferred := s.stored(third)
	s.Equal(0, deferred.Attempts)
	s.Equal(s.now.Add(time.Minute), deferred.NextAttemptAt)
	s.Equal(models.StatusDone, s.stored(email).Status)
	s.Equal(1, s.stored(first).Attempts)
	s.Equal(1, s.stored(second).Attempts)
	s.Equal(3.0, testutil.ToFloat64(s.metrics.ActionsDeferred.WithLabelValues("notify_sms")), "retries due during the cooldown are deferred too")
}

// =============================================================================
// Run loop and classification
// =============================================================================

func (s *WorkerSuite) TestRunStopsOnCancel() {
	w := s.newWorker(WithPollInterval(5 * time.Millisecond))
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("worker did not stop")
	}
}

func (s *WorkerSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.executor)
	s.Error(err)
	_, err = New(s.store, nil)
	s.Error(err)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"provider outage", providers.NewProviderError(providers.ErrorOutage, "ledger", "503", nil), true},
		{"provider timeout", providers.NewProviderError(providers.ErrorTimeout, "ledger", "slow", nil), true},
		{"provider rejection", providers.NewProviderError(providers.ErrorRejected, "ledger", "no", nil), false},
		{"store unavailable", sentinel.ErrUnavailable, true},
		{"deadline", context.DeadlineExceeded, true},
		{"domain conflict", dErrors.New(dErrors.CodeConflict, "work has a claim in progress"), false},
		{"bad payload", dErrors.New(dErrors.CodeInvalidInput, "invalid user ID"), false},
		{"domain internal", dErrors.New(dErrors.CodeInternal, "boom"), true},
		{"unclassified", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	w := &Worker{backoffInitial: time.Second, backoffMax: 5 * time.Second}
	assert.Equal(t, time.Second, w.backoff(1))
	assert.Equal(t, 2*time.Second, w.backoff(2))
	assert.Equal(t, 4*time.Second, w.backoff(3))
	assert.Equal(t, 5*time.Second, w.backoff(4))
	assert.Equal(t, 5*time.Second, w.backoff(20))
}
