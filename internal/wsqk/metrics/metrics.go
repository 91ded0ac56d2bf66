package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued         *prometheus.CounterVec
	Authorizations *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_execution_tokens_issued_total",
			Help: "Execution tokens issued, by verdict",
		}, []string{"verdict"}),
		Authorizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_execution_authorizations_total",
			Help: "Execution gate checks by outcome",
		}, []string{"outcome"}), // outcome: "authorized", "invalid", "mismatch", "unconfirmed", "replayed", "error"
	}
}

func (m *Metrics) IncIssued(verdict string) {
	if m != nil {
		m.Issued.WithLabelValues(verdict).Inc()
	}
}

func (m *Metrics) IncAuthorization(outcome string) {
	if m != nil {
		m.Authorizations.WithLabelValues(outcome).Inc()
	}
}
