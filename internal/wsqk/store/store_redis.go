package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var consumeDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "guardian_consume_token_duration_ms",
	Help:    "Latency of consumed token checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const consumedTokenKeyPrefix = "guardian:wsqk:jti:"

// RedisStore shares consumed token ids across instances. SETNX makes the
// check and the mark one atomic step.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	start := time.Now()
	defer func() {
		consumeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	return s.client.SetNX(ctx, consumedTokenKeyPrefix+jti, "1", ttl).Result()
}
