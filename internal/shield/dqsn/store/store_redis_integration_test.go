//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"guardian/internal/shield/dqsn"
	"guardian/pkg/testutil/containers"
)

func TestRedisStoreSuite(t *testing.T) {
	client := containers.NewRedis(t)
	suite.Run(t, &StoreSuite{newStore: func() dqsn.Store {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
		return NewRedis(client)
	}})
}
