package dqsn

import (
	"context"
	"fmt"

	"guardian/internal/guardian"
	"guardian/internal/shield"
)

const (
	ReasonDenied     = "destination_denied"
	ReasonSuspicious = "destination_suspicious"

	suspiciousScore = 0.7
)

type Provider struct {
	store Store
}

func New(store Store) *Provider {
	return &Provider{store: store}
}

func (p *Provider) Layer() guardian.Layer { return guardian.LayerDQSN }

func (p *Provider) Assess(ctx context.Context, in shield.AssessInput) (*guardian.Signal, error) {
	f := shield.NewFindings(guardian.LayerDQSN)
	if in.Context.Destination == "" {
		return f.Signal(), nil
	}
	rep, err := p.store.Get(ctx, in.Context.Destination)
	if err != nil {
		return nil, fmt.Errorf("lookup destination reputation: %w", err)
	}
	if rep == nil {
		return f.Signal(), nil
	}
	switch rep.Level {
	case LevelDeny:
		f.Critical(ReasonDenied)
	case LevelSuspicious:
		f.Add(suspiciousScore, ReasonSuspicious)
	}
	return f.Signal(), nil
}
