package incident_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ComplianceAuditor,OpsTracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"guardian/internal/guardian"
	"guardian/internal/incident"
	"guardian/internal/incident/mocks"
	"guardian/internal/incident/store"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	compliance *mocks.MockComplianceAuditor
	ops        *mocks.MockOpsTracker
	store      *store.InMemoryStore
	service    *incident.Service
	now        time.Time
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.compliance = mocks.NewMockComplianceAuditor(s.ctrl)
	s.ops = mocks.NewMockOpsTracker(s.ctrl)
	s.store = store.NewInMemory()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	var err error
	s.service, err = incident.New(s.store,
		incident.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		incident.WithComplianceAuditor(s.compliance),
		incident.WithOpsTracker(s.ops),
		incident.WithRetention(24*time.Hour),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) decision(v guardian.Verdict, at time.Time) guardian.Decision {
	return guardian.Decision{
		ID:            domain.NewDecisionID(),
		WalletID:      "wallet-1",
		Verdict:       v,
		Score:         0.9,
		Reasons:       []string{guardian.ReasonScoreBlock},
		PolicyVersion: "default-v1",
		PolicyHash:    "abc",
		EvaluatedAt:   at,
	}
}

func (s *ServiceSuite) TestNew() {
	_, err := incident.New(nil)
	s.ErrorContains(err, "incident store is required")
}

func (s *ServiceSuite) TestOpen() {
	s.Run("block decision opens an incident and audits it", func() {
		s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.ComplianceEvent) error {
				s.Equal(audit.EventIncidentOpened, e.Action)
				s.Equal("BLOCK", e.Decision)
				s.Equal("abc", e.PolicyHash)
				return nil
			})

		inc, err := s.service.Open(s.ctx, s.decision(guardian.VerdictBlock, s.now))
		s.Require().NoError(err)
		s.Equal(guardian.VerdictBlock, inc.Verdict)
		s.Equal(s.now, inc.CreatedAt)

		list, err := s.service.List(s.ctx, "wallet-1", 0)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("allow decision is rejected", func() {
		_, err := s.service.Open(s.ctx, s.decision(guardian.VerdictAllow, s.now))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("audit failure fails the operation", func() {
		s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))
		_, err := s.service.Open(s.ctx, s.decision(guardian.VerdictLockdown, s.now))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestResolve() {
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	inc, err := s.service.Open(s.ctx, s.decision(guardian.VerdictBlock, s.now))
	s.Require().NoError(err)

	resolved, err := s.service.Resolve(s.ctx, "wallet-1", inc.ID, "false positive")
	s.Require().NoError(err)
	s.True(resolved.IsResolved())
	s.Equal("false positive", resolved.ResolutionNote)

	_, err = s.service.Resolve(s.ctx, "wallet-1", inc.ID, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.Resolve(s.ctx, "wallet-2", inc.ID, "wrong wallet")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStabilityIndex() {
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	idx, err := s.service.StabilityIndex(s.ctx, "wallet-1", s.now)
	s.Require().NoError(err)
	s.Equal(1.0, idx)

	_, err = s.service.Open(s.ctx, s.decision(guardian.VerdictLockdown, s.now.Add(-time.Hour)))
	s.Require().NoError(err)
	_, err = s.service.Open(s.ctx, s.decision(guardian.VerdictBlock, s.now.Add(-40*24*time.Hour)))
	s.Require().NoError(err)

	idx, err = s.service.StabilityIndex(s.ctx, "wallet-1", s.now)
	s.Require().NoError(err)
	s.InDelta(0.6, idx, 1e-9)
}

func (s *ServiceSuite) TestPrune() {
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	_, err := s.service.Open(s.ctx, s.decision(guardian.VerdictBlock, s.now.Add(-48*time.Hour)))
	s.Require().NoError(err)
	_, err = s.service.Open(s.ctx, s.decision(guardian.VerdictBlock, s.now.Add(-time.Hour)))
	s.Require().NoError(err)

	s.ops.EXPECT().Track(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.OpsEvent) {
		s.Equal(audit.EventIncidentsPruned, e.Action)
	})
	n, err := s.service.Prune(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, n)

	// nothing left to prune: no ops event
	n, err = s.service.Prune(s.ctx, s.now)
	s.Require().NoError(err)
	s.Zero(n)
}
