package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guardian/internal/guardian"
	"guardian/pkg/domain"
)

const (
	hintsKeyPrefix = "guardian:hints:"
	globalHintsKey = hintsKeyPrefix + "global"
)

// RedisStore reads JSON hints at guardian:hints:<wallet>, falling back to
// guardian:hints:global. Expiry is the key TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func hintsKey(walletID domain.WalletID) string {
	if walletID == "" {
		return globalHintsKey
	}
	return hintsKeyPrefix + walletID.String()
}

func (s *RedisStore) Hints(ctx context.Context, walletID domain.WalletID) (*guardian.WeightHints, error) {
	vals, err := s.client.MGet(ctx, hintsKey(walletID), globalHintsKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get hints: %w", err)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var h guardian.WeightHints
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			return nil, fmt.Errorf("decode hints: %w", err)
		}
		return &h, nil
	}
	return nil, nil
}

func (s *RedisStore) Publish(ctx context.Context, walletID domain.WalletID, hints guardian.WeightHints, ttl time.Duration) error {
	raw, err := json.Marshal(hints)
	if err != nil {
		return fmt.Errorf("encode hints: %w", err)
	}
	if err := s.client.Set(ctx, hintsKey(walletID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("publish hints: %w", err)
	}
	return nil
}
