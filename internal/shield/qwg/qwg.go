// Package qwg is the quantum-exposure guard. Keys under legacy signature
// schemes whose public key is already on chain are at risk, and the risk
// grows with the value moved.
package qwg

import (
	"context"

	"guardian/internal/guardian"
	"guardian/internal/shield"
)

const (
	ReasonExposedLegacyKey = "exposed_legacy_key"
	ReasonLegacyKeyScheme  = "legacy_key_scheme"
)

// DefaultHighValue is the amount, in minor units, at which exposure risk
// saturates.
const DefaultHighValue int64 = 100_000_000

const (
	legacyScore      = 0.1
	exposedBaseScore = 0.3
	exposedSpan      = 0.6
)

type Provider struct {
	highValue int64
}

func New(highValue int64) *Provider {
	if highValue <= 0 {
		highValue = DefaultHighValue
	}
	return &Provider{highValue: highValue}
}

func (p *Provider) Layer() guardian.Layer { return guardian.LayerQWG }

func (p *Provider) Assess(_ context.Context, in shield.AssessInput) (*guardian.Signal, error) {
	f := shield.NewFindings(guardian.LayerQWG)
	tc := in.Context
	if !tc.KeyScheme.IsLegacy() {
		return f.Signal(), nil
	}
	if !tc.PubkeyExposed {
		f.Add(legacyScore, ReasonLegacyKeyScheme)
		return f.Signal(), nil
	}
	share := min(float64(tc.Amount)/float64(p.highValue), 1)
	f.Add(exposedBaseScore+exposedSpan*share, ReasonExposedLegacyKey)
	return f.Signal(), nil
}
