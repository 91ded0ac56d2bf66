// Package domain holds typed identifiers shared across Guardian modules.
//
// Wallet and account identifiers are opaque strings assigned by the wallet
// platform; incident and decision identifiers are UUIDs minted here. Parsing
// happens once at the trust boundary so services never see raw strings.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "guardian/pkg/domain-errors"
)

const (
	maxOpaqueIDLength = 64
	maxAddressLength  = 128
)

type (
	WalletID   string
	AccountID  string
	DeviceID   string
	Address    string
	IncidentID uuid.UUID
	DecisionID uuid.UUID
)

func (id WalletID) String() string  { return string(id) }
func (id AccountID) String() string { return string(id) }
func (id DeviceID) String() string  { return string(id) }
func (a Address) String() string    { return string(a) }

func (id IncidentID) String() string { return uuid.UUID(id).String() }
func (id DecisionID) String() string { return uuid.UUID(id).String() }

func (id IncidentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DecisionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id IncidentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id DecisionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *IncidentID) UnmarshalText(b []byte) error {
	parsed, err := ParseIncidentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DecisionID) UnmarshalText(b []byte) error {
	parsed, err := ParseDecisionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewIncidentID returns a random incident identifier.
func NewIncidentID() IncidentID { return IncidentID(uuid.New()) }

// NewDecisionID returns a random decision identifier.
func NewDecisionID() DecisionID { return DecisionID(uuid.New()) }

// ParseWalletID validates a wallet identifier: 1-64 chars of [A-Za-z0-9._:-].
func ParseWalletID(s string) (WalletID, error) {
	if err := validateOpaque("wallet_id", s, maxOpaqueIDLength, true); err != nil {
		return "", err
	}
	return WalletID(s), nil
}

// ParseAccountID validates an account identifier. Empty is allowed.
func ParseAccountID(s string) (AccountID, error) {
	if err := validateOpaque("account_id", s, maxOpaqueIDLength, false); err != nil {
		return "", err
	}
	return AccountID(s), nil
}

// ParseDeviceID validates a device identifier. Empty is allowed.
func ParseDeviceID(s string) (DeviceID, error) {
	if err := validateOpaque("device_id", s, maxAddressLength, false); err != nil {
		return "", err
	}
	return DeviceID(s), nil
}

// ParseAddress validates a destination address. Empty is allowed; callers
// requiring a destination check for it themselves.
func ParseAddress(s string) (Address, error) {
	if err := validateOpaque("destination", s, maxAddressLength, false); err != nil {
		return "", err
	}
	return Address(s), nil
}

func ParseIncidentID(s string) (IncidentID, error) {
	u, err := parseUUID("incident_id", s)
	return IncidentID(u), err
}

func ParseDecisionID(s string) (DecisionID, error) {
	u, err := parseUUID("decision_id", s)
	return DecisionID(u), err
}

func parseUUID(field, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return u, nil
}

func validateOpaque(field, s string, maxLen int, required bool) error {
	if s == "" {
		if required {
			return dErrors.New(dErrors.CodeInvalidInput, field+" is required")
		}
		return nil
	}
	if len(s) > maxLen {
		return dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	for i := 0; i < len(s); i++ {
		if !isOpaqueByte(s[i]) {
			return dErrors.New(dErrors.CodeInvalidInput, field+" contains invalid characters")
		}
	}
	return nil
}

func isOpaqueByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == ':', c == '-':
		return true
	}
	return false
}
