package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AssessLatency *prometheus.HistogramVec
	Unavailable   *prometheus.CounterVec
	Scores        *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AssessLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guardian_shield_assess_duration_seconds",
			Help:    "Time spent assessing a transaction, by layer",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"layer"}),
		Unavailable: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_shield_unavailable_total",
			Help: "Layer assessments that failed or timed out",
		}, []string{"layer", "cause"}), // cause: "error", "timeout"
		Scores: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guardian_shield_score",
			Help:    "Layer scores of available signals",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"layer"}),
	}
}

func (m *Metrics) ObserveAssess(layer string, d time.Duration) {
	if m != nil {
		m.AssessLatency.WithLabelValues(layer).Observe(d.Seconds())
	}
}

func (m *Metrics) IncUnavailable(layer, cause string) {
	if m != nil {
		m.Unavailable.WithLabelValues(layer, cause).Inc()
	}
}

func (m *Metrics) ObserveScore(layer string, score float64) {
	if m != nil {
		m.Scores.WithLabelValues(layer).Observe(score)
	}
}
