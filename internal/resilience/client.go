package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
)

// Operation names one logical upstream call. Consent operations get their own,
// stricter limiter and breaker.
type Operation struct {
	Name    string
	Consent bool
}

// ClientConfig configures the guards of one upstream
type ClientConfig struct {
	Upstream                 string
	RequestsPerMinute        int
	ConsentRequestsPerMinute int
	BreakerThreshold         int
	ConsentBreakerThreshold  int
	BreakerTimeout           time.Duration
	Retry                    RetryConfig
}

// ClientConfigFor builds the guard settings for upstream from the resilience config
func ClientConfigFor(upstream string, cfg config.ResilienceConfig) ClientConfig {
	return ClientConfig{
		Upstream:                 upstream,
		RequestsPerMinute:        cfg.RequestsPerMinute,
		ConsentRequestsPerMinute: cfg.ConsentRequestsPerMinute,
		BreakerThreshold:         cfg.BreakerThreshold,
		ConsentBreakerThreshold:  cfg.ConsentBreakerThreshold,
		BreakerTimeout:           cfg.BreakerTimeout,
		Retry: RetryConfig{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
			MaxDelay:  cfg.RetryMaxDelay,
		},
	}
}

// Client guards every call to one upstream: rate limit, circuit breaker, retry,
// error classification and caching. Create one per upstream and share it.
type Client struct {
	cfg            ClientConfig
	limiter        RateLimiter
	breaker        *CircuitBreaker
	consentBreaker *CircuitBreaker
	retrier        *Retrier
	cache          *Cache
}

// NewClient creates a guarded client for one upstream
func NewClient(cfg ClientConfig, state SharedState, limiter RateLimiter, clock adapter.Clock, json adapter.JSON) *Client {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.ConsentRequestsPerMinute <= 0 {
		cfg.ConsentRequestsPerMinute = 30
	}
	if cfg.ConsentBreakerThreshold <= 0 {
		cfg.ConsentBreakerThreshold = 3
	}

	return &Client{
		cfg:            cfg,
		limiter:        limiter,
		breaker:        NewCircuitBreaker(cfg.Upstream, state, clock, cfg.BreakerThreshold, cfg.BreakerTimeout),
		consentBreaker: NewCircuitBreaker(cfg.Upstream+":consent", state, clock, cfg.ConsentBreakerThreshold, cfg.BreakerTimeout),
		retrier:        NewRetrier(cfg.Retry),
		cache:          NewCache(cfg.Upstream, state, json),
	}
}

// Upstream returns the upstream name
func (c *Client) Upstream() string {
	return c.cfg.Upstream
}

// Cache returns the upstream's cache for explicit invalidation
func (c *Client) Cache() *Cache {
	return c.cache
}

// Breaker returns the breaker guarding op
func (c *Client) Breaker(op Operation) *CircuitBreaker {
	if op.Consent {
		return c.consentBreaker
	}
	return c.breaker
}

func (c *Client) limit(op Operation) (string, int) {
	if op.Consent {
		return c.cfg.Upstream + ":consent", c.cfg.ConsentRequestsPerMinute
	}
	return c.cfg.Upstream, c.cfg.RequestsPerMinute
}

// Do runs fn behind the guards of op. Order: rate limit, circuit breaker, retry
// with backoff, classification, breaker bookkeeping.
func Do[T any](ctx context.Context, c *Client, op Operation, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	key, perMinute := c.limit(op)
	allowed, retryAfter, err := c.limiter.Allow(ctx, key, perMinute)
	if err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		logger.WarnCtx(ctx, "Rate limiter unavailable, letting call through",
			zap.String("upstream", c.cfg.Upstream), zap.Error(err))
	} else if !allowed {
		return zero, domain.NewRateLimitError(c.cfg.Upstream, op.Name, retryAfter)
	}

	breaker := c.Breaker(op)
	allowed, remaining, err := breaker.Allow(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Circuit breaker state unavailable, letting call through",
			zap.String("upstream", c.cfg.Upstream), zap.Error(err))
	} else if !allowed {
		return zero, domain.NewCircuitOpenError(c.cfg.Upstream, op.Name, remaining)
	}

	var result T
	err = c.retrier.Do(ctx, op.Name, func(ctx context.Context, attempt int) error {
		v, err := fn(ctx)
		if err != nil {
			ue := c.classify(op, err)
			ue.Attempt = attempt
			return ue
		}
		result = v
		return nil
	})
	if err != nil {
		switch {
		case retryable(err):
			if rerr := breaker.RecordFailure(ctx); rerr != nil {
				logger.WarnCtx(ctx, "Failed to record breaker failure", zap.Error(rerr))
			}
		case answered(err):
			// a terminal response still shows the upstream is up
			if rerr := breaker.RecordSuccess(ctx); rerr != nil {
				logger.WarnCtx(ctx, "Failed to record breaker success", zap.Error(rerr))
			}
		default:
			// the caller's context may already be done
			if rerr := breaker.ReleaseTrial(context.WithoutCancel(ctx)); rerr != nil {
				logger.WarnCtx(ctx, "Failed to release breaker trial slot", zap.Error(rerr))
			}
		}
		return zero, err
	}

	if rerr := breaker.RecordSuccess(ctx); rerr != nil {
		logger.WarnCtx(ctx, "Failed to record breaker success", zap.Error(rerr))
	}
	return result, nil
}

// Read is Do for cacheable reads
func Read[T any](ctx context.Context, c *Client, op Operation, namespace, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	return GetOrLoad(ctx, c.cache, namespace, key, ttl, func(ctx context.Context) (T, error) {
		return Do(ctx, c, op, fn)
	})
}

// ReadSWR is Read with stale-while-revalidate
func ReadSWR[T any](ctx context.Context, c *Client, op Operation, namespace, key string, ttl, staleTTL time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	return GetOrLoadSWR(ctx, c.cache, namespace, key, ttl, staleTTL, func(ctx context.Context) (T, error) {
		return Do(ctx, c, op, fn)
	})
}

// answered reports whether err carries a response from the upstream
func answered(err error) bool {
	ue, ok := domain.AsUpstreamError(err)
	return ok && ue.Status != nil
}

// classify turns any call error into an UpstreamError. Errors without a response
// (transport failures, timeouts) carry no status and are retryable.
func (c *Client) classify(op Operation, err error) *domain.UpstreamError {
	if ue, ok := domain.AsUpstreamError(err); ok {
		if ue.Upstream == "" {
			ue.Upstream = c.cfg.Upstream
		}
		if ue.Operation == "" {
			ue.Operation = op.Name
		}
		return ue
	}
	return domain.NewUpstreamError(c.cfg.Upstream, op.Name, nil, err.Error(), err)
}
