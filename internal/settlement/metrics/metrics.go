package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the settlement outbox worker.
type Metrics struct {
	ActionsScheduled *prometheus.CounterVec
	ActionsProcessed *prometheus.CounterVec
	ActionsDeferred  *prometheus.CounterVec
	ActionDuration   *prometheus.HistogramVec
	CircuitState     *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActionsScheduled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_settlement_actions_scheduled_total",
			Help: "Settlement actions queued by kind",
		}, []string{"kind"}),
		ActionsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_settlement_actions_processed_total",
			Help: "Settlement action attempts by kind and outcome (done, skipped, retry, failed)",
		}, []string{"kind", "outcome"}),
		ActionsDeferred: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_settlement_actions_deferred_total",
			Help: "Actions pushed back because their collaborator's circuit was open",
		}, []string{"kind"}),
		ActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tbt_settlement_action_duration_seconds",
			Help:    "Time spent executing one settlement action",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		CircuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tbt_settlement_circuit_open",
			Help: "1 while the collaborator's circuit breaker is open",
		}, []string{"collaborator"}),
	}
}

func (m *Metrics) IncScheduled(kind string) {
	if m != nil {
		m.ActionsScheduled.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncProcessed(kind, outcome string) {
	if m != nil {
		m.ActionsProcessed.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncDeferred(kind string) {
	if m != nil {
		m.ActionsDeferred.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveDuration(kind string, seconds float64) {
	if m != nil {
		m.ActionDuration.WithLabelValues(kind).Observe(seconds)
	}
}

func (m *Metrics) SetCircuitOpen(collaborator string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitState.WithLabelValues(collaborator).Set(v)
}
