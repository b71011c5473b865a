//go:build integration

package bucket_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tbt/internal/platform/config"
	redisclient "tbt/internal/platform/redis"
	"tbt/internal/ratelimit/models"
	"tbt/internal/ratelimit/store/bucket"
	"tbt/pkg/testutil/containers"
)

type RedisBucketSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
	now   time.Time
}

func TestRedisBucketSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketSuite))
}

func (s *RedisBucketSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisBucketSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Millisecond)
	s.store = bucket.NewRedisBucketStore(s.redis.Client, bucket.WithRedisClock(func() time.Time { return s.now }))
}

func (s *RedisBucketSuite) TestLimitAndSlide() {
	ctx := context.Background()
	for i := range 3 {
		res, err := s.store.Allow(ctx, "k", 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}
	res, err := s.store.Allow(ctx, "k", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(60, res.RetryAfter)
	s.Equal(s.now.Add(time.Minute), res.ResetAt)

	s.now = s.now.Add(time.Minute + time.Millisecond)
	res, err = s.store.Allow(ctx, "k", 3, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed, "old attempts leave the window")
	s.Equal(2, res.Remaining)
}

func (s *RedisBucketSuite) TestDeniedAttemptsAreNotCounted() {
	ctx := context.Background()
	_, err := s.store.Allow(ctx, "k", 1, time.Minute)
	s.Require().NoError(err)
	for range 5 {
		_, err = s.store.Allow(ctx, "k", 1, time.Minute)
		s.Require().NoError(err)
	}
	count, err := s.redis.Client.ZCard(ctx, "k").Result()
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *RedisBucketSuite) TestConcurrentAttemptsShareOneWindow() {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 40 {
		wg.Go(func() {
			res, err := s.store.Allow(context.Background(), "shared", 10, time.Minute)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	s.Equal(10, allowed)
}

func (s *RedisBucketSuite) TestReset() {
	ctx := context.Background()
	_, _ = s.store.Allow(ctx, "k", 1, time.Minute)
	s.Require().NoError(s.store.Reset(ctx, "k"))
	res, err := s.store.Allow(ctx, "k", 1, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisBucketSuite) TestNamespacedWindowsThroughServiceClient() {
	ctx := context.Background()
	client, err := redisclient.New(ctx, config.RedisConfig{
		URL:          s.redis.URL,
		KeyPrefix:    "staging:",
		ClientName:   "tbt-code-limiter",
		PoolSize:     4,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	s.Require().NoError(err)
	defer func() { _ = client.Close() }()
	s.Equal("staging", client.KeyPrefix())
	s.Require().NoError(client.Health(ctx))

	name, err := client.ClientGetName(ctx).Result()
	s.Require().NoError(err)
	s.Equal("tbt-code-limiter", name)

	store := bucket.NewRedisBucketStore(client,
		bucket.WithKeyPrefix(client.KeyPrefix()),
		bucket.WithRedisClock(func() time.Time { return s.now }),
	)
	key := models.Key(models.ScopeUser, "user-1")
	res, err := store.Allow(ctx, key, 3, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)

	keys, err := s.redis.Keys(ctx, "*")
	s.Require().NoError(err)
	s.Equal([]string{"staging:" + key}, keys)

	s.Require().NoError(store.Reset(ctx, key))
	keys, err = s.redis.Keys(ctx, "*")
	s.Require().NoError(err)
	s.Empty(keys, "reset clears the namespaced key")
}
