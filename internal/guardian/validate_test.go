package guardian

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "guardian/pkg/domain-errors"
)

func validContext() TransactionContext {
	return TransactionContext{
		WalletID:    "wallet-1",
		Action:      ActionSend,
		Amount:      2500,
		Asset:       "DGB",
		Destination: "dgb1qexample",
		KeyScheme:   KeySchemeECDSA,
		TxDigest:    strings.Repeat("ab", 32),
		OccurredAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateContext(t *testing.T) {
	require.NoError(t, ValidateContext(validContext()))

	t.Run("destination optional outside send", func(t *testing.T) {
		tc := validContext()
		tc.Action = ActionSignMessage
		tc.Destination = ""
		assert.NoError(t, ValidateContext(tc))
	})

	t.Run("digest optional", func(t *testing.T) {
		tc := validContext()
		tc.TxDigest = ""
		assert.NoError(t, ValidateContext(tc))
	})

	cases := []struct {
		name   string
		mutate func(tc *TransactionContext)
		field  string
	}{
		{"missing wallet", func(tc *TransactionContext) { tc.WalletID = "" }, "wallet_id"},
		{"unknown action", func(tc *TransactionContext) { tc.Action = "burn" }, "action"},
		{"negative amount", func(tc *TransactionContext) { tc.Amount = -1 }, "amount"},
		{"empty asset", func(tc *TransactionContext) { tc.Asset = "" }, "asset"},
		{"long asset", func(tc *TransactionContext) { tc.Asset = strings.Repeat("X", 17) }, "asset"},
		{"send without destination", func(tc *TransactionContext) { tc.Destination = "" }, "destination"},
		{"unknown key scheme", func(tc *TransactionContext) { tc.KeyScheme = "rsa" }, "key_scheme"},
		{"short digest", func(tc *TransactionContext) { tc.TxDigest = "abcd" }, "tx_digest"},
		{"uppercase digest", func(tc *TransactionContext) { tc.TxDigest = strings.Repeat("AB", 32) }, "tx_digest"},
		{"non-hex digest", func(tc *TransactionContext) { tc.TxDigest = strings.Repeat("zz", 32) }, "tx_digest"},
		{"missing occurred_at", func(tc *TransactionContext) { tc.OccurredAt = time.Time{} }, "occurred_at"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tc := validContext()
			c.mutate(&tc)
			err := ValidateContext(tc)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), c.field)
		})
	}
}

func TestVerdictOrdering(t *testing.T) {
	assert.Equal(t, VerdictBlock, MaxVerdict(VerdictWarn, VerdictBlock))
	assert.Equal(t, VerdictLockdown, MaxVerdict(VerdictLockdown, VerdictStepUp))
	assert.True(t, VerdictStepUp.AtLeast(VerdictWarn))
	assert.False(t, VerdictWarn.AtLeast(VerdictStepUp))
	assert.True(t, VerdictStepUp.Executable())
	assert.False(t, VerdictBlock.Executable())

	_, err := ParseVerdict("MAYBE")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	v, err := ParseVerdict("WARN")
	require.NoError(t, err)
	assert.Equal(t, VerdictWarn, v)
}
