package sentinel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/guardian"
	"guardian/internal/profile"
	"guardian/internal/shield"
	"guardian/pkg/domain"
)

func TestAssess(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	history := func(dayCount int64) *profile.Profile {
		return &profile.Profile{
			WalletID:          "wallet-1",
			TxCount:           10,
			TotalAmount:       1000,
			MaxAmount:         200,
			KnownDestinations: []string{"addr-a"},
			DayStart:          now.Truncate(24 * time.Hour),
			DayCount:          dayCount,
			DaysObserved:      5,
		}
	}

	tests := []struct {
		name    string
		profile *profile.Profile
		amount  int64
		dest    string
		score   float64
		reasons []string
	}{
		{"no history", nil, 100, "addr-a", 0.3, []string{ReasonNoHistory}},
		{"typical transaction", history(1), 100, "addr-a", 0, []string{}},
		{"ten times the mean saturates", history(1), 1000, "addr-a", 1, []string{ReasonAmountAboveMean, ReasonAmountAboveMax}},
		{"large amount", history(1), 550, "addr-a", 0.65, []string{ReasonAmountAboveMean, ReasonAmountAboveMax}},
		{"new destination", history(1), 100, "addr-b", 0.3, []string{ReasonNewDestination}},
		{"high velocity", history(5), 100, "addr-a", 1.0 / 3, []string{ReasonHighVelocity}},
	}

	p := New(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := p.Assess(context.Background(), shield.AssessInput{
				Context: guardian.TransactionContext{
					WalletID:    "wallet-1",
					Action:      guardian.ActionSend,
					Amount:      tt.amount,
					Destination: domain.Address(tt.dest),
					OccurredAt:  now,
				},
				Profile: tt.profile,
			})
			require.NoError(t, err)
			assert.Equal(t, guardian.LayerSentinel, sig.Layer)
			assert.True(t, sig.Available)
			assert.False(t, sig.Critical)
			assert.InDelta(t, tt.score, sig.Score, 1e-9)
			assert.Equal(t, tt.reasons, sig.Reasons)
		})
	}
}

func TestVelocityIgnoresPreviousDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	prof := &profile.Profile{
		TxCount:           10,
		TotalAmount:       1000,
		MaxAmount:         200,
		KnownDestinations: []string{"addr-a"},
		DayStart:          now.Add(-24 * time.Hour).Truncate(24 * time.Hour),
		DayCount:          9,
		DaysObserved:      5,
	}
	sig, err := New(Config{}).Assess(context.Background(), shield.AssessInput{
		Context: guardian.TransactionContext{Amount: 100, Destination: "addr-a", OccurredAt: now},
		Profile: prof,
	})
	require.NoError(t, err)
	assert.Zero(t, sig.Score)
}
