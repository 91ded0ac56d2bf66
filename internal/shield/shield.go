// Package shield runs the risk-signal layers (sentinel, dqsn, adn, qwg) that
// feed the decision core. Each layer is a Provider; a Gatherer runs them in
// parallel and turns failures into unavailable signals.
package shield

import (
	"context"

	"guardian/internal/guardian"
	"guardian/internal/profile"
)

// AssessInput is what every layer sees. Profile is nil for wallets without
// history. DeviceKey is the device id or user-agent fingerprint.
type AssessInput struct {
	Context   guardian.TransactionContext
	Profile   *profile.Profile
	DeviceKey string
}

// Provider assesses one layer. Implementations must be deterministic over
// their input and backing store.
type Provider interface {
	Layer() guardian.Layer
	Assess(ctx context.Context, in AssessInput) (*guardian.Signal, error)
}

// Findings accumulates independent findings for one layer. Scores combine
// as 1 - prod(1 - s_i), so several weak findings add up without exceeding 1.
type Findings struct {
	layer    guardian.Layer
	residual float64
	critical bool
	reasons  []string
}

func NewFindings(layer guardian.Layer) *Findings {
	return &Findings{layer: layer, residual: 1}
}

// Add records a finding with a score in [0,1]. Zero scores are dropped.
func (f *Findings) Add(score float64, reason string) {
	score = min(max(score, 0), 1)
	if score == 0 {
		return
	}
	f.residual *= 1 - score
	f.reasons = append(f.reasons, reason)
}

// Critical marks the signal critical, which forces at least BLOCK.
func (f *Findings) Critical(reason string) {
	f.critical = true
	f.Add(1, reason)
}

func (f *Findings) Signal() *guardian.Signal {
	reasons := f.reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &guardian.Signal{
		Layer:     f.layer,
		Score:     1 - f.residual,
		Critical:  f.critical,
		Available: true,
		Reasons:   reasons,
	}
}
