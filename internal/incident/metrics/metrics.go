package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the incident lifecycle.
type Metrics struct {
	Opened   *prometheus.CounterVec
	Resolved prometheus.Counter
	Pruned   prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Opened: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_incidents_opened_total",
			Help: "Incidents opened by verdict",
		}, []string{"verdict"}),
		Resolved: f.NewCounter(prometheus.CounterOpts{
			Name: "guardian_incidents_resolved_total",
			Help: "Incidents resolved by operators",
		}),
		Pruned: f.NewCounter(prometheus.CounterOpts{
			Name: "guardian_incidents_pruned_total",
			Help: "Incidents deleted by retention pruning",
		}),
	}
}

func (m *Metrics) IncOpened(verdict string) {
	if m != nil {
		m.Opened.WithLabelValues(verdict).Inc()
	}
}

func (m *Metrics) IncResolved() {
	if m != nil {
		m.Resolved.Inc()
	}
}

func (m *Metrics) AddPruned(n int) {
	if m != nil && n > 0 {
		m.Pruned.Add(float64(n))
	}
}
