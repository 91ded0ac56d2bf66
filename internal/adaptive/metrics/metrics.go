package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Lookups      *prometheus.CounterVec
	CircuitState prometheus.Gauge
	Published    prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_hints_lookups_total",
			Help: "Weight hint lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss", "error", "fallback"
		CircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "guardian_hints_circuit_open",
			Help: "1 while the hints circuit breaker is open",
		}),
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "guardian_hints_published_total",
			Help: "Weight hints published by operators",
		}),
	}
}

func (m *Metrics) IncLookup(outcome string) {
	if m != nil {
		m.Lookups.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.Set(1)
		return
	}
	m.CircuitState.Set(0)
}

func (m *Metrics) IncPublished() {
	if m != nil {
		m.Published.Inc()
	}
}
