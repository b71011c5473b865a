package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks certification and transfer-code lifecycle events.
type Metrics struct {
	WorksCertified       prometheus.Counter
	CodeRotations        prometheus.Counter
	CodeRotationFailures prometheus.Counter
	CodeCollisions       prometheus.Counter
	Reassignments        *prometheus.CounterVec
}

// New registers the work metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WorksCertified: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_works_certified_total",
			Help: "Total number of works certified",
		}),
		CodeRotations: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_transfer_code_rotations_total",
			Help: "Transfer codes rotated after a completed transfer",
		}),
		CodeRotationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_transfer_code_rotation_failures_total",
			Help: "Rotations that failed and were left to the settlement worker",
		}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "tbt_transfer_code_collisions_total",
			Help: "Generated identifiers rejected by the unique index",
		}),
		Reassignments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_work_reassignments_total",
			Help: "Ownership changes outside the code claim flow, by transfer type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncWorksCertified() {
	if m != nil {
		m.WorksCertified.Inc()
	}
}

func (m *Metrics) IncCodeRotations() {
	if m != nil {
		m.CodeRotations.Inc()
	}
}

func (m *Metrics) IncCodeRotationFailures() {
	if m != nil {
		m.CodeRotationFailures.Inc()
	}
}

func (m *Metrics) IncCodeCollisions() {
	if m != nil {
		m.CodeCollisions.Inc()
	}
}

func (m *Metrics) IncReassignments(transferType string) {
	if m != nil {
		m.Reassignments.WithLabelValues(transferType).Inc()
	}
}
