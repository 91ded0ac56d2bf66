//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"guardian/internal/profile"
	"guardian/pkg/testutil/containers"
)

func TestPostgresStoreSuite(t *testing.T) {
	db := containers.NewPostgres(t)
	suite.Run(t, &StoreSuite{newStore: func() profile.Store {
		containers.TruncateAll(t, db)
		return NewPostgres(db)
	}})
}
