// Package profile maintains per-wallet behavior profiles: running amount
// statistics, known destinations and devices, and daily velocity.
package profile

import (
	"context"
	"math"
	"slices"
	"time"

	"guardian/internal/device"
	"guardian/internal/guardian"
	"guardian/pkg/domain"
	"guardian/pkg/platform/strings"
)

const (
	MaxKnownDestinations = 256
	MaxKnownDevices      = 32
)

// Profile is a wallet's observed behavior. It only learns from transactions
// that were allowed or warned.
type Profile struct {
	WalletID          domain.WalletID `json:"wallet_id"`
	TxCount           int64           `json:"tx_count"`
	TotalAmount       int64           `json:"total_amount"`
	MaxAmount         int64           `json:"max_amount"`
	KnownDestinations []string        `json:"known_destinations"`
	KnownDevices      []string        `json:"known_devices"`
	LastPlatform      string          `json:"last_platform"`
	DayStart          time.Time       `json:"day_start"`
	DayCount          int64           `json:"day_count"`
	DaysObserved      int64           `json:"days_observed"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Store persists profiles keyed by wallet id. Get returns nil, nil when the
// wallet has no profile.
type Store interface {
	Get(ctx context.Context, walletID domain.WalletID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	// Update applies fn to the wallet's current profile (nil when absent)
	// and saves the result. Updates of one wallet are serialized, so fn
	// always sees the last saved profile.
	Update(ctx context.Context, walletID domain.WalletID, fn UpdateFunc) (*Profile, error)
}

// UpdateFunc derives the next profile from the current one. It must not
// keep a reference to current.
type UpdateFunc func(current *Profile) *Profile

func (p *Profile) MeanAmount() float64 {
	if p == nil || p.TxCount == 0 {
		return 0
	}
	return float64(p.TotalAmount) / float64(p.TxCount)
}

func (p *Profile) MeanDailyCount() float64 {
	if p == nil || p.DaysObserved == 0 {
		return 0
	}
	return float64(p.TxCount) / float64(p.DaysObserved)
}

// CountOn returns the number of observed transactions on the UTC day of t.
func (p *Profile) CountOn(t time.Time) int64 {
	if p == nil || !p.DayStart.Equal(dayOf(t)) {
		return 0
	}
	return p.DayCount
}

func (p *Profile) KnowsDestination(addr domain.Address) bool {
	return p != nil && slices.Contains(p.KnownDestinations, addr.String())
}

func (p *Profile) KnowsDevice(key string) bool {
	return p != nil && key != "" && slices.Contains(p.KnownDevices, key)
}

// DeviceKey identifies the device of a transaction: the explicit device id,
// or a user-agent fingerprint when none was sent.
func DeviceKey(tc guardian.TransactionContext, fingerprints *device.Service) string {
	if tc.DeviceID != "" {
		return tc.DeviceID.String()
	}
	if fp := fingerprints.ComputeFingerprint(tc.UserAgent); fp != "" {
		return "fp:" + fp
	}
	return ""
}

// Observe returns a copy of p updated with the transaction. A nil p starts a
// new profile. The input is never modified.
func Observe(p *Profile, tc guardian.TransactionContext, deviceKey string, now time.Time) *Profile {
	next := &Profile{WalletID: tc.WalletID}
	if p != nil {
		next = p.clone()
	}

	next.TxCount++
	next.TotalAmount = saturatingAdd(next.TotalAmount, tc.Amount)
	next.MaxAmount = max(next.MaxAmount, tc.Amount)

	if tc.Destination != "" {
		next.KnownDestinations, _ = strings.AppendBounded(next.KnownDestinations, tc.Destination.String(), MaxKnownDestinations)
	}
	if deviceKey != "" {
		next.KnownDevices, _ = strings.AppendBounded(next.KnownDevices, deviceKey, MaxKnownDevices)
	}
	if platform := device.PlatformFamily(tc.UserAgent); platform != "" {
		next.LastPlatform = platform
	}

	today := dayOf(now)
	if !next.DayStart.Equal(today) {
		next.DayStart = today
		next.DayCount = 0
		next.DaysObserved++
	}
	next.DayCount++
	next.UpdatedAt = now
	return next
}

func (p *Profile) clone() *Profile {
	c := *p
	c.KnownDestinations = slices.Clone(p.KnownDestinations)
	c.KnownDevices = slices.Clone(p.KnownDevices)
	return &c
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
