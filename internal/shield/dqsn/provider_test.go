package dqsn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/guardian"
	"guardian/internal/shield"
	"guardian/internal/shield/dqsn"
	"guardian/internal/shield/dqsn/store"
	"guardian/pkg/domain"
)

func TestAssess(t *testing.T) {
	ctx := context.Background()
	reps := store.NewInMemory()
	require.NoError(t, reps.Set(ctx, dqsn.Reputation{Address: "addr-bad", Level: dqsn.LevelDeny}))
	require.NoError(t, reps.Set(ctx, dqsn.Reputation{Address: "addr-odd", Level: dqsn.LevelSuspicious}))
	require.NoError(t, reps.Set(ctx, dqsn.Reputation{Address: "addr-good", Level: dqsn.LevelAllow}))
	p := dqsn.New(reps)

	tests := []struct {
		dest     domain.Address
		score    float64
		critical bool
		reasons  []string
	}{
		{"addr-bad", 1, true, []string{dqsn.ReasonDenied}},
		{"addr-odd", 0.7, false, []string{dqsn.ReasonSuspicious}},
		{"addr-good", 0, false, []string{}},
		{"addr-new", 0, false, []string{}},
		{"", 0, false, []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dest), func(t *testing.T) {
			sig, err := p.Assess(ctx, shield.AssessInput{Context: guardian.TransactionContext{Destination: tt.dest}})
			require.NoError(t, err)
			assert.Equal(t, guardian.LayerDQSN, sig.Layer)
			assert.InDelta(t, tt.score, sig.Score, 1e-9)
			assert.Equal(t, tt.critical, sig.Critical)
			assert.Equal(t, tt.reasons, sig.Reasons)
		})
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, domain.Address) (*dqsn.Reputation, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenStore) Set(context.Context, dqsn.Reputation) error {
	return errors.New("redis: connection refused")
}

func TestAssessStoreError(t *testing.T) {
	_, err := dqsn.New(brokenStore{}).Assess(context.Background(), shield.AssessInput{
		Context: guardian.TransactionContext{Destination: "addr-1"},
	})
	assert.ErrorContains(t, err, "lookup destination reputation")
}
