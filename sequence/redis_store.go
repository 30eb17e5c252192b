package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ CounterStore = (*RedisStore)(nil)

// advanceScript sets KEYS[1] to ARGV[1] only when the stored value is lower.
const advanceScript = `
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local floor = tonumber(ARGV[1])
	if current < floor then
		redis.call('SET', KEYS[1], floor)
		return floor
	end
	return current
`

// RedisStore keeps counters as plain Redis integers; INCR is atomic on the server.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a store whose keys live under prefix (default "counter").
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "counter"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// CounterKey returns the Redis key for a counter.
// Format: {prefix}:{type}:{scope}, with "global" for the unscoped counter.
func (s *RedisStore) CounterKey(key Key) string {
	scope := key.Scope
	if scope == "" {
		scope = "global"
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, key.Type, scope)
}

func (s *RedisStore) Next(ctx context.Context, key Key) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}
	v, err := s.rdb.Incr(ctx, s.CounterKey(key)).Result()
	if err != nil {
		return 0, storageError("next", key, err)
	}
	return v, nil
}

func (s *RedisStore) Current(ctx context.Context, key Key) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}
	v, err := s.rdb.Get(ctx, s.CounterKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError("current", key, err)
	}
	return v, nil
}

func (s *RedisStore) AdvanceTo(ctx context.Context, key Key, floor int64) error {
	if err := key.validate(); err != nil {
		return err
	}
	if floor <= 0 {
		return nil
	}
	if err := s.rdb.Eval(ctx, advanceScript, []string{s.CounterKey(key)}, floor).Err(); err != nil {
		return storageError("advance", key, err)
	}
	return nil
}
