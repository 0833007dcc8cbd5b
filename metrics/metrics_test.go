package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("filter", OutcomeSuccess, 2*time.Millisecond)
	m.ObserveRequest("filter", OutcomeSuccess, time.Millisecond)
	m.ObserveRequest("filter", OutcomeError, time.Millisecond)
	m.ObserveRequest("sort", OutcomeRejected, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("filter", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("filter", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("sort", OutcomeRejected)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration), "rejected requests are not timed")
}

func TestMetrics_ObserveWarning(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveWarning("unknown_label")
	m.ObserveWarning("unknown_label")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.warnings.WithLabelValues("unknown_label")))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("search", OutcomeSuccess, time.Second)
		m.ObserveWarning("unknown_condition")
	})
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
