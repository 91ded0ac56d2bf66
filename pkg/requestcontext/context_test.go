package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.Empty(t, UserAgent(ctx))
		assert.Empty(t, Actor(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("values round trip", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithClientMetadata(ctx, "203.0.113.7", "wallet/2.0")
		ctx = WithActor(ctx, "admin")
		ctx = WithTime(ctx, at)

		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "203.0.113.7", ClientIP(ctx))
		assert.Equal(t, "wallet/2.0", UserAgent(ctx))
		assert.Equal(t, "admin", Actor(ctx))
		assert.Equal(t, at, Now(ctx))
	})
}
