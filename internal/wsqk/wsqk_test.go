package wsqk_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"guardian/internal/guardian"
	"guardian/internal/wsqk"
	"guardian/internal/wsqk/store"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/requestcontext"
)

var (
	secret = []byte("0123456789abcdef0123456789abcdef")
	digest = strings.Repeat("ab", 32)
)

type GateSuite struct {
	suite.Suite
	issuer *wsqk.Issuer
	gate   *wsqk.Gate
	now    time.Time
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	var err error
	s.issuer, err = wsqk.NewIssuer(secret)
	s.Require().NoError(err)
	s.gate, err = wsqk.NewGate(secret, store.NewInMemory())
	s.Require().NoError(err)
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *GateSuite) decision(v guardian.Verdict) guardian.Decision {
	return guardian.Decision{
		ID:          domain.NewDecisionID(),
		WalletID:    "wallet-1",
		Verdict:     v,
		PolicyHash:  "hash-1",
		EvaluatedAt: s.now,
	}
}

func (s *GateSuite) issue(v guardian.Verdict) *wsqk.Token {
	tok, err := s.issuer.Issue(s.decision(v), "wallet-1", digest)
	s.Require().NoError(err)
	return tok
}

func (s *GateSuite) at(d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(d))
}

func (s *GateSuite) TestConstructors() {
	_, err := wsqk.NewIssuer([]byte("short"))
	s.ErrorContains(err, "at least 32 bytes")
	_, err = wsqk.NewGate(secret, nil)
	s.ErrorContains(err, "consumed token store is required")
}

func (s *GateSuite) TestIssueOnlyExecutable() {
	for _, v := range []guardian.Verdict{guardian.VerdictBlock, guardian.VerdictLockdown} {
		_, err := s.issuer.Issue(s.decision(v), "wallet-1", digest)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation), v)
	}
	_, err := s.issuer.Issue(s.decision(guardian.VerdictAllow), "wallet-1", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	warn := s.issue(guardian.VerdictWarn)
	s.True(warn.RequiresAck)
	s.False(warn.RequiresStepUp)
	s.True(s.now.Add(wsqk.DefaultTTL).Equal(warn.ExpiresAt))

	stepUp := s.issue(guardian.VerdictStepUp)
	s.True(stepUp.RequiresStepUp)
}

func (s *GateSuite) TestIssueIsDeterministic() {
	d := s.decision(guardian.VerdictAllow)
	a, err := s.issuer.Issue(d, "wallet-1", digest)
	s.Require().NoError(err)
	b, err := s.issuer.Issue(d, "wallet-1", digest)
	s.Require().NoError(err)
	s.Equal(a.Value, b.Value)
}

func (s *GateSuite) TestAuthorizeOnce() {
	d := s.decision(guardian.VerdictAllow)
	tok, err := s.issuer.Issue(d, "wallet-1", digest)
	s.Require().NoError(err)

	auth, err := s.gate.Authorize(s.at(time.Second), tok.Value, "wallet-1", digest, wsqk.Confirmation{})
	s.Require().NoError(err)
	s.Equal(d.ID, auth.DecisionID)
	s.Equal(guardian.VerdictAllow, auth.Verdict)
	s.Equal("hash-1", auth.PolicyHash)

	_, err = s.gate.Authorize(s.at(2*time.Second), tok.Value, "wallet-1", digest, wsqk.Confirmation{})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *GateSuite) TestAuthorizeRejections() {
	allow := s.issue(guardian.VerdictAllow)
	warn := s.issue(guardian.VerdictWarn)
	stepUp := s.issue(guardian.VerdictStepUp)

	cases := []struct {
		name   string
		ctx    context.Context
		token  string
		wallet domain.WalletID
		digest string
		conf   wsqk.Confirmation
		code   dErrors.Code
	}{
		{"garbage", s.at(0), "not-a-jwt", "wallet-1", digest, wsqk.Confirmation{}, dErrors.CodeUnauthorized},
		{"expired", s.at(wsqk.DefaultTTL + time.Second), allow.Value, "wallet-1", digest, wsqk.Confirmation{}, dErrors.CodeUnauthorized},
		{"other wallet", s.at(0), allow.Value, "wallet-2", digest, wsqk.Confirmation{}, dErrors.CodeForbidden},
		{"other digest", s.at(0), allow.Value, "wallet-1", strings.Repeat("cd", 32), wsqk.Confirmation{}, dErrors.CodeForbidden},
		{"warn without ack", s.at(0), warn.Value, "wallet-1", digest, wsqk.Confirmation{}, dErrors.CodeForbidden},
		{"step-up without step-up", s.at(0), stepUp.Value, "wallet-1", digest, wsqk.Confirmation{Acknowledged: true}, dErrors.CodeForbidden},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.gate.Authorize(tc.ctx, tc.token, tc.wallet, tc.digest, tc.conf)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}

	// Rejected attempts do not consume the token.
	_, err := s.gate.Authorize(s.at(0), warn.Value, "wallet-1", digest, wsqk.Confirmation{Acknowledged: true})
	s.NoError(err)
	_, err = s.gate.Authorize(s.at(0), stepUp.Value, "wallet-1", digest, wsqk.Confirmation{StepUpSatisfied: true})
	s.NoError(err)
}

func (s *GateSuite) TestRejectsForeignKeyAndAlgorithm() {
	other, err := wsqk.NewIssuer([]byte("ffffffffffffffffffffffffffffffff"))
	s.Require().NoError(err)
	forged, err := other.Issue(s.decision(guardian.VerdictAllow), "wallet-1", digest)
	s.Require().NoError(err)
	_, err = s.gate.Authorize(s.at(0), forged.Value, "wallet-1", digest, wsqk.Confirmation{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, wsqk.Claims{
		WalletID: "wallet-1",
		TxDigest: digest,
		Verdict:  "ALLOW",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        domain.NewDecisionID().String(),
			Issuer:    wsqk.DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)
	_, err = s.gate.Authorize(s.at(0), unsigned, "wallet-1", digest, wsqk.Confirmation{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestDeriveSigningKey(t *testing.T) {
	a, err := wsqk.DeriveSigningKey(secret)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 32 || string(a) == string(secret) {
		t.Fatalf("expected a 32-byte key distinct from the secret")
	}
}
