// Package sentinel scores a transaction against the wallet's own history:
// amount relative to the mean and maximum, unseen destinations and daily
// velocity.
package sentinel

import (
	"context"

	"guardian/internal/guardian"
	"guardian/internal/shield"
)

// Reason codes.
const (
	ReasonNoHistory       = "no_history"
	ReasonAmountAboveMean = "amount_above_mean"
	ReasonAmountAboveMax  = "amount_above_max"
	ReasonNewDestination  = "new_destination"
	ReasonHighVelocity    = "high_velocity"
)

// Config tunes the heuristics. Zero values fall back to defaults.
type Config struct {
	// BaselineScore is reported for wallets without history.
	BaselineScore float64
	// MeanRatioSaturation is the amount/mean ratio at which the amount
	// finding reaches 1.
	MeanRatioSaturation float64
	AboveMaxScore       float64
	NewDestinationScore float64
	// VelocityFactor is how many times the mean daily count is tolerated
	// before velocity is scored.
	VelocityFactor float64
}

func DefaultConfig() Config {
	return Config{
		BaselineScore:       0.3,
		MeanRatioSaturation: 10,
		AboveMaxScore:       0.3,
		NewDestinationScore: 0.3,
		VelocityFactor:      2,
	}
}

type Provider struct {
	cfg Config
}

func New(cfg Config) *Provider {
	def := DefaultConfig()
	if cfg.BaselineScore <= 0 {
		cfg.BaselineScore = def.BaselineScore
	}
	if cfg.MeanRatioSaturation <= 1 {
		cfg.MeanRatioSaturation = def.MeanRatioSaturation
	}
	if cfg.AboveMaxScore <= 0 {
		cfg.AboveMaxScore = def.AboveMaxScore
	}
	if cfg.NewDestinationScore <= 0 {
		cfg.NewDestinationScore = def.NewDestinationScore
	}
	if cfg.VelocityFactor <= 0 {
		cfg.VelocityFactor = def.VelocityFactor
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Layer() guardian.Layer { return guardian.LayerSentinel }

func (p *Provider) Assess(_ context.Context, in shield.AssessInput) (*guardian.Signal, error) {
	f := shield.NewFindings(guardian.LayerSentinel)
	tc, prof := in.Context, in.Profile

	if prof == nil || prof.TxCount == 0 {
		f.Add(p.cfg.BaselineScore, ReasonNoHistory)
		return f.Signal(), nil
	}

	if mean := prof.MeanAmount(); mean > 0 {
		ratio := float64(tc.Amount) / mean
		if ratio > 1 {
			f.Add((ratio-1)/(p.cfg.MeanRatioSaturation-1), ReasonAmountAboveMean)
		}
	}
	if tc.Amount > prof.MaxAmount {
		f.Add(p.cfg.AboveMaxScore, ReasonAmountAboveMax)
	}
	if tc.Destination != "" && !prof.KnowsDestination(tc.Destination) {
		f.Add(p.cfg.NewDestinationScore, ReasonNewDestination)
	}
	if meanDaily := prof.MeanDailyCount(); meanDaily > 0 {
		// The current transaction counts toward today.
		v := float64(prof.CountOn(tc.OccurredAt)+1) / meanDaily
		if v > p.cfg.VelocityFactor {
			f.Add((v-p.cfg.VelocityFactor)/(p.cfg.VelocityFactor+1), ReasonHighVelocity)
		}
	}
	return f.Signal(), nil
}
