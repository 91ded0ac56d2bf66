package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts audit emission outcomes per category. Methods are nil-safe.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Dropped         *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration *prometheus.HistogramVec
}

// NewMetrics registers audit metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers audit metrics with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_audit_events_emitted_total",
			Help: "Audit events successfully persisted, by category",
		}, []string{"category"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_audit_events_dropped_total",
			Help: "Audit events dropped, by category and reason (sampled, buffer_full)",
		}, []string{"category", "reason"}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_audit_persist_failures_total",
			Help: "Audit events that failed to persist, by category",
		}, []string{"category"}),
		PersistDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guardian_audit_persist_duration_seconds",
			Help:    "Time spent persisting audit events",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"category"}),
	}
}

func (m *Metrics) IncEmitted(c EventCategory) {
	if m == nil {
		return
	}
	m.Emitted.WithLabelValues(string(c)).Inc()
}

func (m *Metrics) IncDropped(c EventCategory, reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(string(c), reason).Inc()
}

func (m *Metrics) IncPersistFailures(c EventCategory) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(string(c)).Inc()
}

func (m *Metrics) ObservePersistDuration(c EventCategory, seconds float64) {
	if m == nil {
		return
	}
	m.PersistDuration.WithLabelValues(string(c)).Observe(seconds)
}
