package bucket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tbt/internal/ratelimit/models"
)

// slidingWindowScript keeps one sorted set per key, scored by attempt time in
// milliseconds. Expired members are trimmed before counting so the window
// slides instead of resetting on a boundary.
//
// KEYS[1] window key
// ARGV[1] now (ms), ARGV[2] window (ms), ARGV[3] limit, ARGV[4] member
// returns {allowed, count, oldest}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < limit then
  redis.call("ZADD", key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call("PEXPIRE", key, window)

local oldest = now
local first = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisBucketStore shares code-attempt windows across every server instance.
type RedisBucketStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisBucketStore(client redis.Cmdable, opts ...RedisOption) *RedisBucketStore {
	s := &RedisBucketStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RedisOption func(*RedisBucketStore)

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisBucketStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyPrefix stores every window under "<prefix>:<key>".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisBucketStore) {
		s.prefix = prefix
	}
}

func (s *RedisBucketStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	// Two attempts in the same millisecond must both count.
	member := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()

	raw, err := slidingWindowScript.Run(ctx, s.client, []string{s.key(key)},
		now.UnixMilli(), windowMillis, limit, member).Result()
	if err != nil {
		return nil, fmt.Errorf("run sliding window script: %w", err)
	}
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return nil, errors.New("unexpected sliding window response")
	}
	allowed, ok1 := values[0].(int64)
	count, ok2 := values[1].(int64)
	oldest, ok3 := values[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return nil, errors.New("invalid sliding window response")
	}

	resetAt := time.UnixMilli(oldest + windowMillis).UTC()
	remaining := max(limit-int(count), 0)
	result := &models.RateLimitResult{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(resetAt.Sub(now))
	}
	return result, nil
}

// Reset clears the window for a key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
