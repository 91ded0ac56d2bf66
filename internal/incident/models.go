// Package incident records BLOCK and LOCKDOWN verdicts and derives each
// wallet's stability index from its recent unresolved incidents.
package incident

import (
	"context"
	"time"

	"guardian/internal/guardian"
	"guardian/pkg/domain"
)

const (
	DefaultRetention       = 90 * 24 * time.Hour
	DefaultStabilityWindow = 30 * 24 * time.Hour
	DefaultListLimit       = 50
	MaxListLimit           = 500

	// stabilitySaturation is the total incident weight at which the index
	// reaches zero.
	stabilitySaturation = 5.0
)

// Incident is a persisted record of a BLOCK or LOCKDOWN verdict.
type Incident struct {
	ID             domain.IncidentID
	WalletID       domain.WalletID
	DecisionID     domain.DecisionID
	Verdict        guardian.Verdict
	Score          float64
	Reasons        []string
	PolicyVersion  string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
	ResolutionNote string
}

func (i *Incident) IsResolved() bool {
	return i.ResolvedAt != nil
}

// Weight is the incident's contribution to instability.
func (i *Incident) Weight() float64 {
	switch i.Verdict {
	case guardian.VerdictLockdown:
		return 2
	case guardian.VerdictBlock:
		return 1
	default:
		return 0
	}
}

// Store persists incidents. Resolve returns sentinel.ErrNotFound for an
// unknown incident and sentinel.ErrConflict when it is already resolved.
type Store interface {
	Create(ctx context.Context, inc *Incident) error
	ListByWallet(ctx context.Context, walletID domain.WalletID, limit int) ([]Incident, error)
	ListUnresolvedSince(ctx context.Context, walletID domain.WalletID, since time.Time) ([]Incident, error)
	Resolve(ctx context.Context, walletID domain.WalletID, id domain.IncidentID, at time.Time, note string) (*Incident, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// StabilityIndex is 1 minus the summed weight of unresolved incidents
// created within window before now, divided by the saturation weight,
// clamped to [0,1].
func StabilityIndex(incidents []Incident, now time.Time, window time.Duration) float64 {
	since := now.Add(-window)
	var total float64
	for i := range incidents {
		inc := &incidents[i]
		if inc.IsResolved() || inc.CreatedAt.Before(since) || inc.CreatedAt.After(now) {
			continue
		}
		total += inc.Weight()
	}
	return min(max(1-total/stabilitySaturation, 0), 1)
}

// ClampLimit applies the default and maximum list sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
