// Package adaptive is the source of per-wallet weight hints. Hints are
// published by an external model; Guardian only reads them, and falls back
// to static weights when the source misbehaves.
package adaptive

import (
	"context"
	"fmt"
	"math"
	"time"

	"guardian/internal/guardian"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

const (
	maxVersionLength = 64
	// MaxMultiplier bounds published multipliers; the policy clamps further.
	MaxMultiplier = 10.0
	DefaultTTL    = 24 * time.Hour
)

// Source returns the hints that apply to a wallet: its own, else the global
// hints, else nil, nil.
type Source interface {
	Hints(ctx context.Context, walletID domain.WalletID) (*guardian.WeightHints, error)
}

// Store is a Source that also accepts hints. An empty walletID addresses the
// global hints.
type Store interface {
	Source
	Publish(ctx context.Context, walletID domain.WalletID, hints guardian.WeightHints, ttl time.Duration) error
}

// ValidateHints rejects multipliers for non-signal layers and values that
// are not finite and positive.
func ValidateHints(h guardian.WeightHints) error {
	if len(h.Multipliers) == 0 {
		return dErrors.New(dErrors.CodeValidation, "multipliers are required")
	}
	for layer, m := range h.Multipliers {
		if !layer.IsSignalLayer() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("layer %q does not take hints", layer))
		}
		if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 || m > MaxMultiplier {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("multiplier for %s must be in (0, %g]", layer, MaxMultiplier))
		}
	}
	if len(h.Version) > maxVersionLength {
		return dErrors.New(dErrors.CodeValidation, "version is too long")
	}
	return nil
}
