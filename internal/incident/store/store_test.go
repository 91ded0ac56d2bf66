package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guardian/internal/guardian"
	"guardian/internal/incident"
	"guardian/internal/platform/sqlite"
	"guardian/pkg/domain"
	"guardian/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	newStore func() incident.Store
	store    incident.Store
	now      time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() incident.Store { return NewInMemory() }})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() incident.Store {
		db, err := sqlite.OpenMigrated(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return NewSQLite(db)
	}})
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) create(wallet domain.WalletID, v guardian.Verdict, createdAt time.Time) *incident.Incident {
	inc := &incident.Incident{
		ID:            domain.NewIncidentID(),
		WalletID:      wallet,
		DecisionID:    domain.NewDecisionID(),
		Verdict:       v,
		Score:         0.85,
		Reasons:       []string{"critical_dqsn", "score_block"},
		PolicyVersion: "default-v1",
		CreatedAt:     createdAt,
	}
	s.Require().NoError(s.store.Create(context.Background(), inc))
	return inc
}

func (s *StoreSuite) TestListByWalletNewestFirst() {
	ctx := context.Background()
	old := s.create("wallet-1", guardian.VerdictBlock, s.now.Add(-2*time.Hour))
	recent := s.create("wallet-1", guardian.VerdictLockdown, s.now.Add(-time.Hour))
	s.create("wallet-2", guardian.VerdictBlock, s.now)

	list, err := s.store.ListByWallet(ctx, "wallet-1", 10)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(recent.ID, list[0].ID)
	s.Equal(old.ID, list[1].ID)
	s.Equal([]string{"critical_dqsn", "score_block"}, list[0].Reasons)
	s.Equal(recent.DecisionID, list[0].DecisionID)
	s.True(recent.CreatedAt.Equal(list[0].CreatedAt))

	limited, err := s.store.ListByWallet(ctx, "wallet-1", 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	none, err := s.store.ListByWallet(ctx, "nobody", 10)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *StoreSuite) TestResolveOnce() {
	ctx := context.Background()
	inc := s.create("wallet-1", guardian.VerdictBlock, s.now.Add(-time.Hour))

	resolved, err := s.store.Resolve(ctx, "wallet-1", inc.ID, s.now, "reviewed")
	s.Require().NoError(err)
	s.Require().NotNil(resolved.ResolvedAt)
	s.True(s.now.Equal(*resolved.ResolvedAt))
	s.Equal("reviewed", resolved.ResolutionNote)

	_, err = s.store.Resolve(ctx, "wallet-1", inc.ID, s.now, "again")
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.Resolve(ctx, "wallet-1", domain.NewIncidentID(), s.now, "")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Resolve(ctx, "wallet-2", inc.ID, s.now, "")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestListUnresolvedSince() {
	ctx := context.Background()
	s.create("wallet-1", guardian.VerdictBlock, s.now.Add(-48*time.Hour))
	keep := s.create("wallet-1", guardian.VerdictBlock, s.now.Add(-time.Hour))
	resolved := s.create("wallet-1", guardian.VerdictLockdown, s.now.Add(-time.Hour))
	_, err := s.store.Resolve(ctx, "wallet-1", resolved.ID, s.now, "")
	s.Require().NoError(err)

	list, err := s.store.ListUnresolvedSince(ctx, "wallet-1", s.now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(keep.ID, list[0].ID)
}

func (s *StoreSuite) TestDeleteBefore() {
	ctx := context.Background()
	s.create("wallet-1", guardian.VerdictBlock, s.now.Add(-100*24*time.Hour))
	old := s.create("wallet-2", guardian.VerdictLockdown, s.now.Add(-95*24*time.Hour))
	_, err := s.store.Resolve(ctx, "wallet-2", old.ID, s.now, "")
	s.Require().NoError(err)
	s.create("wallet-1", guardian.VerdictBlock, s.now)

	n, err := s.store.DeleteBefore(ctx, s.now.Add(-90*24*time.Hour))
	s.Require().NoError(err)
	s.Equal(2, n)

	left, err := s.store.ListByWallet(ctx, "wallet-1", 10)
	s.Require().NoError(err)
	s.Len(left, 1)
}
