package guardian

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	dErrors "guardian/pkg/domain-errors"
)

const (
	maxAssetLength       = 16
	maxDestinationLength = 128
	maxUserAgentLength   = 512
	txDigestLength       = 64
)

// ValidateContext rejects malformed transaction contexts. Errors carry
// CodeValidation and name the offending field.
func ValidateContext(tc TransactionContext) error {
	invalid := func(format string, args ...any) error {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf(format, args...))
	}

	if tc.WalletID == "" {
		return invalid("wallet_id is required")
	}
	if !tc.Action.IsValid() {
		return invalid("action %q is not supported", tc.Action)
	}
	if tc.Amount < 0 {
		return invalid("amount must not be negative")
	}

	if n := utf8.RuneCountInString(tc.Asset); n == 0 || n > maxAssetLength {
		return invalid("asset must be 1 to %d characters", maxAssetLength)
	}

	if tc.Action == ActionSend && tc.Destination == "" {
		return invalid("destination is required for send")
	}
	if len(tc.Destination) > maxDestinationLength {
		return invalid("destination must be at most %d characters", maxDestinationLength)
	}

	if !tc.KeyScheme.IsValid() {
		return invalid("key_scheme %q is not supported", tc.KeyScheme)
	}
	if len(tc.UserAgent) > maxUserAgentLength {
		return invalid("user_agent must be at most %d characters", maxUserAgentLength)
	}

	if tc.TxDigest != "" {
		if len(tc.TxDigest) != txDigestLength || strings.ToLower(tc.TxDigest) != tc.TxDigest {
			return invalid("tx_digest must be 64 lowercase hex characters")
		}
		if _, err := hex.DecodeString(tc.TxDigest); err != nil {
			return invalid("tx_digest must be 64 lowercase hex characters")
		}
	}

	if tc.OccurredAt.IsZero() {
		return invalid("occurred_at is required")
	}
	return nil
}
