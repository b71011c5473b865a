package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions      *prometheus.CounterVec
	StoreErrors    prometheus.Counter
	FallbackActive prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_ratelimit_code_attempts_total",
			Help: "Code submissions checked by the limiter, by scope and outcome (allowed, denied)",
		}, []string{"scope", "outcome"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_ratelimit_store_errors_total",
			Help: "Failed calls to the shared window store",
		}),
		FallbackActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "tbt_ratelimit_fallback_active",
			Help: "1 while code attempts are counted in process because the shared store is unavailable",
		}),
	}
}

func (m *Metrics) IncDecision(scope string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.Decisions.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) IncStoreError() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}

func (m *Metrics) SetFallback(active bool) {
	if m == nil {
		return
	}
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}
