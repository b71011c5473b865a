package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncDecision("user", true)
	m.IncDecision("user", false)
	m.IncDecision("user", false)
	m.IncStoreError()
	m.SetFallback(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("user", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("user", "denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))

	m.SetFallback(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.IncDecision("ip", true)
		nilMetrics.SetFallback(true)
	})
}
