// Package metrics exposes Prometheus instrumentation for the computation
// units. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Metrics holds the collectors for one host.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	warnings *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sieve_unit_requests_total",
			Help: "Requests handled per unit, by outcome",
		}, []string{"unit", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sieve_unit_duration_seconds",
			Help:    "Time spent computing a unit response",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"unit"}),
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sieve_filter_rule_warnings_total",
			Help: "Filter rules that fell back to the permissive default, by code",
		}, []string{"code"}),
	}
}

// ObserveRequest counts a finished request and records its duration.
// Rejected requests are counted but not timed.
func (m *Metrics) ObserveRequest(unit, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(unit, outcome).Inc()
	if outcome != OutcomeRejected {
		m.duration.WithLabelValues(unit).Observe(elapsed.Seconds())
	}
}

// ObserveWarning counts a rule warning.
func (m *Metrics) ObserveWarning(code string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(code).Inc()
}
