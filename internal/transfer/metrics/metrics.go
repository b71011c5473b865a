package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the claim protocol from code entry to commit.
type Metrics struct {
	CodeSubmissions *prometheus.CounterVec
	ClaimsResumed   prometheus.Counter
	StaleTakeovers  prometheus.Counter
	Payments        *prometheus.CounterVec
	Commits         *prometheus.CounterVec
	Refunds         *prometheus.CounterVec
	ClaimsClosed    *prometheus.CounterVec
	CommitDuration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CodeSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_transfer_code_submissions_total",
			Help: "Transfer code submissions by outcome (claimed, invalid, completed)",
		}, []string{"outcome"}),
		ClaimsResumed: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_transfer_claims_resumed_total",
			Help: "Code submissions that resumed the caller's own open claim",
		}),
		StaleTakeovers: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_transfer_stale_takeovers_total",
			Help: "Abandoned claims taken over by a new claimant",
		}),
		Payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_transfer_payments_total",
			Help: "Transfer fee charges by outcome",
		}, []string{"outcome"}),
		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_transfer_commits_total",
			Help: "Ownership commits after payment by outcome",
		}, []string{"outcome"}),
		Refunds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_transfer_refunds_total",
			Help: "Refunds issued after a failed commit by outcome",
		}, []string{"outcome"}),
		ClaimsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_transfer_claims_closed_total",
			Help: "Claims closed without a transfer, by reason (cancelled, expired)",
		}, []string{"reason"}),
		CommitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tbt_transfer_commit_duration_seconds",
			Help:    "Time from successful charge to committed ownership change",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncCodeSubmission(outcome string) {
	if m != nil {
		m.CodeSubmissions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncClaimsResumed() {
	if m != nil {
		m.ClaimsResumed.Inc()
	}
}

func (m *Metrics) IncStaleTakeovers() {
	if m != nil {
		m.StaleTakeovers.Inc()
	}
}

func (m *Metrics) IncPayment(outcome string) {
	if m != nil {
		m.Payments.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncCommit(outcome string) {
	if m != nil {
		m.Commits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncRefund(outcome string) {
	if m != nil {
		m.Refunds.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncClaimsClosed(reason string) {
	if m != nil {
		m.ClaimsClosed.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveCommitDuration(seconds float64) {
	if m != nil {
		m.CommitDuration.Observe(seconds)
	}
}
