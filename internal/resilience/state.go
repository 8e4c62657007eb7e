package resilience

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/feral-file/crm-bridge/internal/adapter"
)

// SharedState is the counter and key/value store shared by every worker talking to
// the same upstream. Breaker, limiter and cache state all live behind it.
//
//go:generate mockgen -source=state.go -destination=../mocks/shared_state.go -package=mocks -mock_names=SharedState=MockSharedState
type SharedState interface {
	// Get returns the value at key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value at key; ttl <= 0 keeps it until deleted
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Incr increments the counter at key. The ttl applies when the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error
}

// =============================================================================
// Redis
// =============================================================================

type redisState struct {
	client adapter.RedisClient
}

// NewRedisState creates a SharedState backed by Redis
func NewRedisState(client adapter.RedisClient) SharedState {
	return &redisState{client: client}
}

func (s *redisState) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *redisState) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *redisState) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx %s: %w", key, err)
	}
	return ok, nil
}

func (s *redisState) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to incr %s: %w", key, err)
	}
	if n == 1 && ttl > 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return n, fmt.Errorf("failed to expire %s: %w", key, err)
		}
	}
	return n, nil
}

func (s *redisState) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// =============================================================================
// In-process
// =============================================================================

type memoryState struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryState creates a process-local SharedState. It is used when Redis is not
// configured and as the fallback while Redis is unreachable.
func NewMemoryState() SharedState {
	return &memoryState{cache: gocache.New(gocache.NoExpiration, time.Minute)}
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (s *memoryState) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	switch val := v.(type) {
	case string:
		return val, true, nil
	case int64:
		return strconv.FormatInt(val, 10), true, nil
	}
	return fmt.Sprint(v), true, nil
}

func (s *memoryState) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, expiration(ttl))
	return nil
}

func (s *memoryState) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	// Add fails when the key exists and is not expired
	return s.cache.Add(key, value, expiration(ttl)) == nil, nil
}

func (s *memoryState) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, err := s.cache.IncrementInt64(key, 1); err == nil {
		return n, nil
	}
	s.cache.Set(key, int64(1), expiration(ttl))
	return 1, nil
}

func (s *memoryState) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Delete(k)
	}
	return nil
}

// =============================================================================
// Failover
// =============================================================================

// failoverState uses the primary while it is healthy and the fallback otherwise.
// Health is driven by the RedisMonitor shared with the rate limiter.
type failoverState struct {
	primary  SharedState
	fallback SharedState
	monitor  *RedisMonitor
}

// NewFailoverState combines a Redis backed state with an in-process fallback
func NewFailoverState(primary, fallback SharedState, monitor *RedisMonitor) SharedState {
	return &failoverState{primary: primary, fallback: fallback, monitor: monitor}
}

func (s *failoverState) pick() SharedState {
	if s.monitor == nil || s.monitor.Available() {
		return s.primary
	}
	return s.fallback
}

func (s *failoverState) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.pick().Get(ctx, key)
	if err != nil && s.degrade(ctx, err) {
		return s.fallback.Get(ctx, key)
	}
	return v, ok, err
}

func (s *failoverState) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := s.pick().Set(ctx, key, value, ttl)
	if err != nil && s.degrade(ctx, err) {
		return s.fallback.Set(ctx, key, value, ttl)
	}
	return err
}

func (s *failoverState) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.pick().SetNX(ctx, key, value, ttl)
	if err != nil && s.degrade(ctx, err) {
		return s.fallback.SetNX(ctx, key, value, ttl)
	}
	return ok, err
}

func (s *failoverState) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.pick().Incr(ctx, key, ttl)
	if err != nil && s.degrade(ctx, err) {
		return s.fallback.Incr(ctx, key, ttl)
	}
	return n, err
}

func (s *failoverState) Delete(ctx context.Context, keys ...string) error {
	err := s.pick().Delete(ctx, keys...)
	if err != nil && s.degrade(ctx, err) {
		return s.fallback.Delete(ctx, keys...)
	}
	return err
}

// degrade marks the primary unavailable after a backend error and reports whether
// the call should be repeated on the fallback
func (s *failoverState) degrade(ctx context.Context, err error) bool {
	if ctx.Err() != nil || s.monitor == nil {
		return false
	}
	s.monitor.MarkUnavailable(err)
	return true
}
