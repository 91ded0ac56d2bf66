package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"guardian/internal/lockdown"
	"guardian/pkg/domain"
)

const lockdownKeyPrefix = "guardian:lockdown:"

// recordBlockScript restarts the window when it started at or before the
// cutoff, then increments the count. Timestamps are unix nanoseconds.
var recordBlockScript = redis.NewScript(`
local key = KEYS[1]
local now = ARGV[1]
local cutoff = tonumber(ARGV[2])
local start = tonumber(redis.call('HGET', key, 'window_start') or '0')
if start == 0 or start <= cutoff then
  redis.call('HSET', key, 'window_start', now, 'block_count', 0)
end
redis.call('HINCRBY', key, 'block_count', 1)
redis.call('HSET', key, 'updated_at', now)
return redis.call('HGETALL', key)
`)

// RedisStore keeps lockdown state in one hash per wallet so all instances
// share it.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func lockdownKey(walletID domain.WalletID) string {
	return lockdownKeyPrefix + walletID.String()
}

func (s *RedisStore) Get(ctx context.Context, walletID domain.WalletID) (*lockdown.State, error) {
	fields, err := s.client.HGetAll(ctx, lockdownKey(walletID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get lockdown state: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeHash(walletID, fields)
}

func (s *RedisStore) RecordBlock(ctx context.Context, walletID domain.WalletID, now, windowCutoff time.Time) (*lockdown.State, error) {
	res, err := recordBlockScript.Run(ctx, s.client, []string{lockdownKey(walletID)},
		now.UTC().UnixNano(), windowCutoff.UTC().UnixNano()).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("record block: %w", err)
	}
	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}
	return decodeHash(walletID, fields)
}

func (s *RedisStore) ApplyLock(ctx context.Context, walletID domain.WalletID, lockedUntil *time.Time, manual bool, reason string, now time.Time) error {
	key := lockdownKey(walletID)
	until := "0"
	if lockedUntil != nil {
		until = strconv.FormatInt(lockedUntil.UTC().UnixNano(), 10)
	}
	nowNanos := strconv.FormatInt(now.UTC().UnixNano(), 10)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "window_start", nowNanos)
		pipe.HSetNX(ctx, key, "block_count", "0")
		pipe.HSet(ctx, key,
			"locked_until", until,
			"manual", strconv.FormatBool(manual),
			"reason", reason,
			"updated_at", nowNanos,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply lockdown: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, walletID domain.WalletID) error {
	if err := s.client.Del(ctx, lockdownKey(walletID)).Err(); err != nil {
		return fmt.Errorf("clear lockdown: %w", err)
	}
	return nil
}

func decodeHash(walletID domain.WalletID, fields map[string]string) (*lockdown.State, error) {
	st := &lockdown.State{WalletID: walletID, Reason: fields["reason"]}
	var err error
	if st.BlockCount, err = atoiOrZero(fields["block_count"]); err != nil {
		return nil, fmt.Errorf("decode block_count: %w", err)
	}
	if st.WindowStart, err = nanosOrZero(fields["window_start"]); err != nil {
		return nil, fmt.Errorf("decode window_start: %w", err)
	}
	if st.UpdatedAt, err = nanosOrZero(fields["updated_at"]); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	until, err := nanosOrZero(fields["locked_until"])
	if err != nil {
		return nil, fmt.Errorf("decode locked_until: %w", err)
	}
	if !until.IsZero() {
		st.LockedUntil = &until
	}
	st.Manual = fields["manual"] == "true"
	return st, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func nanosOrZero(s string) (time.Time, error) {
	if s == "" || s == "0" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}
