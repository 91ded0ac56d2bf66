//go:build integration

package store

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"guardian/internal/incident"
	"guardian/pkg/testutil/containers"
)

func TestPostgresStoreSuite(t *testing.T) {
	db := containers.NewPostgres(t)
	suite.Run(t, &StoreSuite{newStore: func() incident.Store {
		containers.TruncateAll(t, db)
		return NewPostgres(db)
	}})
}
