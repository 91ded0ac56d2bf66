package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions        *prometheus.CounterVec
	EvaluateDuration prometheus.Histogram
	Scores           prometheus.Histogram
	Coverage         prometheus.Histogram
	HintsFallback    prometheus.Counter
	SideEffectErrors prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_decisions_total",
			Help: "Decisions by verdict",
		}, []string{"verdict"}),
		EvaluateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardian_evaluate_duration_seconds",
			Help:    "End-to-end evaluation latency including side effects",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Scores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardian_decision_score",
			Help:    "Weighted risk score of decisions",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Coverage: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardian_decision_coverage",
			Help:    "Share of policy weight backed by available signals",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		HintsFallback: f.NewCounter(prometheus.CounterOpts{
			Name: "guardian_hints_fallback_total",
			Help: "Decisions made with static weights because hints were unavailable",
		}),
		SideEffectErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "guardian_decision_side_effect_errors_total",
			Help: "Evaluations that failed while recording incidents, lockdowns, profiles or audit",
		}),
	}
}

func (m *Metrics) ObserveDecision(verdict string, score, coverage float64, d time.Duration) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(verdict).Inc()
	m.Scores.Observe(score)
	m.Coverage.Observe(coverage)
	m.EvaluateDuration.Observe(d.Seconds())
}

func (m *Metrics) IncHintsFallback() {
	if m != nil {
		m.HintsFallback.Inc()
	}
}

func (m *Metrics) IncSideEffectError() {
	if m != nil {
		m.SideEffectErrors.Inc()
	}
}
