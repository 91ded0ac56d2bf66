// Package lockdown freezes wallets after repeated BLOCK verdicts or on
// operator request.
package lockdown

import (
	"context"
	"time"

	"guardian/pkg/domain"
)

// Reasons recorded on a lockdown.
const (
	ReasonBlockThreshold = "block_threshold"
	ReasonManual         = "manual"
)

// State is a wallet's lockdown record. A manual lock without LockedUntil
// holds until cleared.
type State struct {
	WalletID    domain.WalletID
	BlockCount  int
	WindowStart time.Time
	LockedUntil *time.Time
	Manual      bool
	Reason      string
	UpdatedAt   time.Time
}

// IsLockedAt reports whether the wallet is frozen at now.
func (s *State) IsLockedAt(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.LockedUntil == nil {
		return s.Manual
	}
	return now.Before(*s.LockedUntil)
}

// ShouldLock reports whether the block count reached threshold.
func (s *State) ShouldLock(threshold int) bool {
	return s != nil && threshold > 0 && s.BlockCount >= threshold
}

// Status is the caller-facing view of a wallet's lockdown.
type Status struct {
	WalletID    domain.WalletID `json:"wallet_id"`
	Locked      bool            `json:"locked"`
	LockedUntil *time.Time      `json:"locked_until,omitempty"`
	Manual      bool            `json:"manual"`
	Reason      string          `json:"reason,omitempty"`
	BlockCount  int             `json:"block_count"`
}

func statusOf(walletID domain.WalletID, s *State, now time.Time) Status {
	st := Status{WalletID: walletID}
	if s == nil {
		return st
	}
	st.Locked = s.IsLockedAt(now)
	st.BlockCount = s.BlockCount
	if st.Locked {
		st.LockedUntil = s.LockedUntil
		st.Manual = s.Manual
		st.Reason = s.Reason
	}
	return st
}

// Store persists lockdown state.
//
// RecordBlock atomically increments the block count, restarting the window
// when the stored window started at or before windowCutoff.
// ApplyLock sets the lock fields, creating the record if needed.
type Store interface {
	Get(ctx context.Context, walletID domain.WalletID) (*State, error)
	RecordBlock(ctx context.Context, walletID domain.WalletID, now, windowCutoff time.Time) (*State, error)
	ApplyLock(ctx context.Context, walletID domain.WalletID, lockedUntil *time.Time, manual bool, reason string, now time.Time) error
	Clear(ctx context.Context, walletID domain.WalletID) error
}
