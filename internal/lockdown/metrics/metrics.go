package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Triggered *prometheus.CounterVec
	Cleared   prometheus.Counter
	Checks    *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Triggered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_lockdowns_triggered_total",
			Help: "Wallet lockdowns applied, by trigger",
		}, []string{"trigger"}), // trigger: "threshold", "manual"
		Cleared: f.NewCounter(prometheus.CounterOpts{
			Name: "guardian_lockdowns_cleared_total",
			Help: "Wallet lockdowns cleared by operators",
		}),
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_lockdown_checks_total",
			Help: "Lockdown checks by result",
		}, []string{"locked"}),
	}
}

func (m *Metrics) IncTriggered(trigger string) {
	if m != nil {
		m.Triggered.WithLabelValues(trigger).Inc()
	}
}

func (m *Metrics) IncCleared() {
	if m != nil {
		m.Cleared.Inc()
	}
}

func (m *Metrics) IncCheck(locked bool) {
	if m == nil {
		return
	}
	label := "false"
	if locked {
		label = "true"
	}
	m.Checks.WithLabelValues(label).Inc()
}
