package handler

import (
	"strings"
	"time"

	"guardian/internal/guardian"
	"guardian/internal/wsqk"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

const maxTokenLength = 4096

// EvaluateRequest is the HTTP request body for POST /guardian/evaluate.
type EvaluateRequest struct {
	WalletID      string     `json:"wallet_id"`
	AccountID     string     `json:"account_id"`
	Action        string     `json:"action"`
	Amount        int64      `json:"amount"`
	Asset         string     `json:"asset"`
	Destination   string     `json:"destination"`
	DeviceID      string     `json:"device_id"`
	UserAgent     string     `json:"user_agent"`
	KeyScheme     string     `json:"key_scheme"`
	PubkeyExposed bool       `json:"pubkey_exposed"`
	TxDigest      string     `json:"tx_digest"`
	OccurredAt    *time.Time `json:"occurred_at"`

	// Parsed values (populated by Validate)
	walletID    domain.WalletID
	accountID   domain.AccountID
	destination domain.Address
	deviceID    domain.DeviceID
}

// Validate parses identifiers. Semantic checks happen in the decision core.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.walletID, err = domain.ParseWalletID(strings.TrimSpace(r.WalletID)); err != nil {
		return err
	}
	if r.accountID, err = domain.ParseAccountID(strings.TrimSpace(r.AccountID)); err != nil {
		return err
	}
	if r.destination, err = domain.ParseAddress(strings.TrimSpace(r.Destination)); err != nil {
		return err
	}
	if r.deviceID, err = domain.ParseDeviceID(strings.TrimSpace(r.DeviceID)); err != nil {
		return err
	}

	r.Action = strings.TrimSpace(r.Action)
	r.Asset = strings.TrimSpace(r.Asset)
	r.KeyScheme = strings.ToLower(strings.TrimSpace(r.KeyScheme))
	r.TxDigest = strings.ToLower(strings.TrimSpace(r.TxDigest))
	return nil
}

// ToContext builds the transaction context. The request time stands in for a
// missing occurred_at, and the request's user agent for a missing user_agent.
func (r *EvaluateRequest) ToContext(now time.Time, userAgent, clientIP string) guardian.TransactionContext {
	occurredAt := now
	if r.OccurredAt != nil {
		occurredAt = r.OccurredAt.UTC()
	}
	ua := r.UserAgent
	if ua == "" {
		ua = userAgent
	}
	return guardian.TransactionContext{
		WalletID:      r.walletID,
		AccountID:     r.accountID,
		Action:        guardian.Action(r.Action),
		Amount:        r.Amount,
		Asset:         r.Asset,
		Destination:   r.destination,
		DeviceID:      r.deviceID,
		UserAgent:     ua,
		ClientIP:      clientIP,
		KeyScheme:     guardian.KeyScheme(r.KeyScheme),
		PubkeyExposed: r.PubkeyExposed,
		TxDigest:      r.TxDigest,
		OccurredAt:    occurredAt,
	}
}

// AuthorizeRequest is the HTTP request body for POST /guardian/authorize.
type AuthorizeRequest struct {
	Token           string `json:"token"`
	WalletID        string `json:"wallet_id"`
	TxDigest        string `json:"tx_digest"`
	Acknowledged    bool   `json:"acknowledged"`
	StepUpSatisfied bool   `json:"step_up_satisfied"`

	walletID domain.WalletID
}

func (r *AuthorizeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Token) > maxTokenLength {
		return dErrors.New(dErrors.CodeValidation, "token is too long")
	}
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	walletID, err := domain.ParseWalletID(strings.TrimSpace(r.WalletID))
	if err != nil {
		return err
	}
	r.walletID = walletID
	r.TxDigest = strings.ToLower(strings.TrimSpace(r.TxDigest))
	if r.TxDigest == "" {
		return dErrors.New(dErrors.CodeValidation, "tx_digest is required")
	}
	return nil
}

func (r *AuthorizeRequest) Confirmation() wsqk.Confirmation {
	return wsqk.Confirmation{Acknowledged: r.Acknowledged, StepUpSatisfied: r.StepUpSatisfied}
}
