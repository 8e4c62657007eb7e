package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	maxJitter             = time.Second
)

// exponentialJitter yields base*2^(n-1) plus up to one second of jitter, capped at max
type exponentialJitter struct {
	base    time.Duration
	max     time.Duration
	jitter  func() time.Duration
	attempt int
}

func (b *exponentialJitter) NextBackOff() time.Duration {
	b.attempt++
	d := b.base << (b.attempt - 1)
	if d <= 0 || d > b.max {
		d = b.max
	}
	d += b.jitter()
	if d > b.max {
		d = b.max
	}
	return d
}

func (b *exponentialJitter) Reset() {
	b.attempt = 0
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int64N(int64(maxJitter))) //nolint:gosec,G404
}

// RetryConfig configures a Retrier
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Retrier re-runs an operation while it fails with a retryable error
type Retrier struct {
	cfg    RetryConfig
	jitter func() time.Duration
	timer  backoff.Timer
}

// NewRetrier creates a retrier with defaults for zero values
func NewRetrier(cfg RetryConfig) *Retrier {
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultRetryAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultRetryBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultRetryMaxDelay
	}
	return &Retrier{cfg: cfg, jitter: randomJitter}
}

// Attempts returns the configured attempt budget
func (r *Retrier) Attempts() int {
	return r.cfg.Attempts
}

func (r *Retrier) policy(ctx context.Context) backoff.BackOffContext {
	b := &exponentialJitter{base: r.cfg.BaseDelay, max: r.cfg.MaxDelay, jitter: r.jitter}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.Attempts-1)), ctx) //nolint:gosec,G115
}

// Do runs fn until it succeeds, fails terminally, or the attempts are spent.
// fn receives the 1-based attempt number. The last error is returned as is.
func (r *Retrier) Do(ctx context.Context, name string, fn func(ctx context.Context, attempt int) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Retrying upstream call",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	return backoff.RetryNotifyWithTimer(op, r.policy(ctx), notify, r.timer)
}

func retryable(err error) bool {
	if ue, ok := domain.AsUpstreamError(err); ok {
		return ue.Retryable()
	}
	return false
}
