package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
)

const limiterKeyPrefix = "crm-bridge:limiter:"

// RateLimiter enforces a per-key requests-per-minute budget and fails fast when it is spent.
// The distributed path uses redis_rate so every worker shares the budget; the local
// path keeps one token bucket per key while Redis is unavailable.
//
//go:generate mockgen -source=limiter.go -destination=../mocks/rate_limiter.go -package=mocks -mock_names=RateLimiter=MockRateLimiter
type RateLimiter interface {
	// Allow consumes one token for key. When the budget is exhausted it returns
	// false and how long until the next token.
	Allow(ctx context.Context, key string, perMinute int) (bool, time.Duration, error)
}

type rateLimiter struct {
	distributed adapter.RedisRateLimiter
	monitor     *RedisMonitor
	clock       adapter.Clock

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter. distributed and monitor may be nil for a process-local limiter.
func NewRateLimiter(distributed adapter.RedisRateLimiter, monitor *RedisMonitor, clock adapter.Clock) RateLimiter {
	return &rateLimiter{
		distributed: distributed,
		monitor:     monitor,
		clock:       clock,
		local:       make(map[string]*rate.Limiter),
	}
}

func (l *rateLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, time.Duration, error) {
	if perMinute <= 0 {
		return true, 0, nil
	}

	if l.distributed != nil && l.monitor != nil && l.monitor.Available() {
		res, err := l.distributed.Allow(ctx, limiterKeyPrefix+key, redis_rate.PerMinute(perMinute))
		if err == nil {
			if res.Allowed == 0 {
				logger.DebugCtx(ctx, "Rate limit budget exhausted",
					zap.String("key", key),
					zap.Duration("retry_after", res.RetryAfter),
					zap.Int("remaining", res.Remaining),
				)
				return false, res.RetryAfter, nil
			}
			return true, 0, nil
		}
		if ctx.Err() != nil {
			return false, 0, ctx.Err()
		}
		l.monitor.MarkUnavailable(err)
	}

	return l.allowLocal(key, perMinute)
}

func (l *rateLimiter) allowLocal(key string, perMinute int) (bool, time.Duration, error) {
	lim := l.localLimiter(key, perMinute)
	now := l.clock.Now()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, fmt.Errorf("rate limiter for %s cannot grant a token", key)
	}
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (l *rateLimiter) localLimiter(key string, perMinute int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.local[key]
	if !ok || lim.Burst() != perMinute {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		l.local[key] = lim
	}
	return lim
}
