package wsqk

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"guardian/internal/guardian"
	"guardian/internal/wsqk/metrics"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

// Issuer signs execution tokens for executable decisions.
type Issuer struct {
	key     []byte
	ttl     time.Duration
	issuer  string
	metrics *metrics.Metrics
}

type IssuerOption func(*Issuer)

func WithTTL(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		if d > 0 {
			i.ttl = d
		}
	}
}

func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		if name != "" {
			i.issuer = name
		}
	}
}

func WithIssuerMetrics(m *metrics.Metrics) IssuerOption {
	return func(i *Issuer) {
		i.metrics = m
	}
}

func NewIssuer(masterSecret []byte, opts ...IssuerOption) (*Issuer, error) {
	key, err := DeriveSigningKey(masterSecret)
	if err != nil {
		return nil, err
	}
	i := &Issuer{key: key, ttl: DefaultTTL, issuer: DefaultIssuer}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for d. Only ALLOW, WARN and STEP_UP decisions with a
// payload digest get one. Issued and expiry times derive from the decision,
// so the same decision always yields the same token.
func (i *Issuer) Issue(d guardian.Decision, walletID domain.WalletID, txDigest string) (*Token, error) {
	if !d.Verdict.Executable() {
		return nil, dErrors.Wrap(errNotExecutable, dErrors.CodeInvariantViolation, "no execution token for "+string(d.Verdict))
	}
	if txDigest == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tx_digest is required for an execution token")
	}

	ack, stepUp := requirementsOf(d.Verdict)
	expiresAt := d.EvaluatedAt.Add(i.ttl)
	claims := Claims{
		WalletID:       walletID.String(),
		TxDigest:       txDigest,
		Verdict:        string(d.Verdict),
		RequiresAck:    ack,
		RequiresStepUp: stepUp,
		PolicyHash:     d.PolicyHash,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        d.ID.String(),
			Issuer:    i.issuer,
			Subject:   walletID.String(),
			IssuedAt:  jwt.NewNumericDate(d.EvaluatedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign execution token")
	}
	i.metrics.IncIssued(string(d.Verdict))
	return &Token{
		Value:          signed,
		ExpiresAt:      expiresAt,
		RequiresAck:    ack,
		RequiresStepUp: stepUp,
	}, nil
}
