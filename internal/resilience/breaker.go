package resilience

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
)

const breakerKeyPrefix = "crm-bridge:breaker:"

// BreakerState is the observable state of a circuit breaker
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// CircuitBreaker counts failures per key in SharedState. Once failures reach the
// threshold the circuit opens for timeout; afterwards one trial call is let through.
// A successful call closes the circuit and a failed trial call opens it again.
type CircuitBreaker struct {
	name      string
	state     SharedState
	clock     adapter.Clock
	threshold int
	timeout   time.Duration
}

// NewCircuitBreaker creates a breaker for name (usually "<upstream>" or "<upstream>:consent")
func NewCircuitBreaker(name string, state SharedState, clock adapter.Clock, threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &CircuitBreaker{
		name:      name,
		state:     state,
		clock:     clock,
		threshold: threshold,
		timeout:   timeout,
	}
}

func (b *CircuitBreaker) failuresKey() string { return breakerKeyPrefix + b.name + ":failures" }
func (b *CircuitBreaker) openedKey() string   { return breakerKeyPrefix + b.name + ":opened_at" }
func (b *CircuitBreaker) trialKey() string    { return breakerKeyPrefix + b.name + ":trial" }

// openedAt returns when the circuit opened, or the zero time when it is closed
func (b *CircuitBreaker) openedAt(ctx context.Context) (time.Time, error) {
	v, ok, err := b.state.Get(ctx, b.openedKey())
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// unreadable state is treated as closed
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// State reports the current state without admitting a trial call
func (b *CircuitBreaker) State(ctx context.Context) (BreakerState, time.Duration, error) {
	opened, err := b.openedAt(ctx)
	if err != nil {
		return BreakerClosed, 0, err
	}
	if opened.IsZero() {
		return BreakerClosed, 0, nil
	}
	elapsed := b.clock.Now().Sub(opened)
	if elapsed < b.timeout {
		return BreakerOpen, b.timeout - elapsed, nil
	}
	return BreakerHalfOpen, 0, nil
}

// Allow reports whether a call may proceed. When it may not, the returned duration
// is the time remaining until a trial call will be admitted.
func (b *CircuitBreaker) Allow(ctx context.Context) (bool, time.Duration, error) {
	st, remaining, err := b.State(ctx)
	if err != nil {
		return false, 0, err
	}

	switch st {
	case BreakerClosed:
		return true, 0, nil
	case BreakerOpen:
		return false, remaining, nil
	}

	// Half open: the first caller to take the trial lock goes through
	acquired, err := b.state.SetNX(ctx, b.trialKey(), strconv.FormatInt(b.clock.Now().UnixMilli(), 10), b.timeout)
	if err != nil {
		return false, 0, err
	}
	if !acquired {
		return false, time.Second, nil
	}
	logger.InfoCtx(ctx, "Circuit breaker half-open, admitting trial call", zap.String("breaker", b.name))
	return true, 0, nil
}

// RecordSuccess closes the circuit and resets the failure counter
func (b *CircuitBreaker) RecordSuccess(ctx context.Context) error {
	opened, err := b.openedAt(ctx)
	if err != nil {
		return err
	}
	if !opened.IsZero() {
		logger.InfoCtx(ctx, "Circuit breaker closed", zap.String("breaker", b.name))
	}
	return b.state.Delete(ctx, b.failuresKey(), b.openedKey(), b.trialKey())
}

// ReleaseTrial frees the half-open trial slot after a call that neither proved nor
// disproved the upstream's health
func (b *CircuitBreaker) ReleaseTrial(ctx context.Context) error {
	return b.state.Delete(ctx, b.trialKey())
}

// RecordFailure counts a failure and opens the circuit when the threshold is reached
// or when the failed call was the half-open trial call
func (b *CircuitBreaker) RecordFailure(ctx context.Context) error {
	opened, err := b.openedAt(ctx)
	if err != nil {
		return err
	}

	now := b.clock.Now()
	nowMs := strconv.FormatInt(now.UnixMilli(), 10)

	if !opened.IsZero() {
		if now.Sub(opened) >= b.timeout {
			// trial call failed, start a new open window
			if err := b.state.Set(ctx, b.openedKey(), nowMs, 0); err != nil {
				return err
			}
			logger.WarnCtx(ctx, "Circuit breaker trial call failed, reopening", zap.String("breaker", b.name))
			return b.state.Delete(ctx, b.trialKey())
		}
		return nil
	}

	failures, err := b.state.Incr(ctx, b.failuresKey(), b.timeout)
	if err != nil {
		return err
	}
	if failures < int64(b.threshold) {
		return nil
	}

	set, err := b.state.SetNX(ctx, b.openedKey(), nowMs, 0)
	if err != nil {
		return err
	}
	if set {
		logger.WarnCtx(ctx, "Circuit breaker opened",
			zap.String("breaker", b.name),
			zap.Int64("failures", failures),
			zap.Duration("timeout", b.timeout))
	}
	return nil
}
