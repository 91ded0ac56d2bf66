// Package wsqk turns executable decisions into short-lived, single-use
// execution tokens and checks them before a signing host acts. The decision
// core decides; this package only enforces what was decided.
package wsqk

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"guardian/internal/guardian"
)

const (
	DefaultTTL    = 2 * time.Minute
	DefaultIssuer = "guardian"

	keyInfo   = "guardian/wsqk/token-signing/v1"
	keyLength = 32
	minSecret = 32
)

// Claims bind a token to one decision, wallet and payload digest.
type Claims struct {
	WalletID       string `json:"wallet_id"`
	TxDigest       string `json:"tx_digest"`
	Verdict        string `json:"verdict"`
	RequiresAck    bool   `json:"requires_ack,omitempty"`
	RequiresStepUp bool   `json:"requires_step_up,omitempty"`
	PolicyHash     string `json:"policy_hash"`
	jwt.RegisteredClaims
}

// Token is an issued execution token.
type Token struct {
	Value          string    `json:"value"`
	ExpiresAt      time.Time `json:"expires_at"`
	RequiresAck    bool      `json:"requires_ack"`
	RequiresStepUp bool      `json:"requires_step_up"`
}

// DeriveSigningKey expands the master secret into the token signing key so
// the secret itself never signs anything.
func DeriveSigningKey(masterSecret []byte) ([]byte, error) {
	if len(masterSecret) < minSecret {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecret)
	}
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterSecret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

var errNotExecutable = errors.New("decision is not executable")

func requirementsOf(v guardian.Verdict) (ack, stepUp bool) {
	return v == guardian.VerdictWarn, v == guardian.VerdictStepUp
}
