//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"guardian/internal/wsqk"
	"guardian/pkg/testutil/containers"
)

func TestRedisStoreSuite(t *testing.T) {
	client := containers.NewRedis(t)
	suite.Run(t, &StoreSuite{newStore: func() wsqk.ConsumedStore {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
		return NewRedis(client)
	}})
}
