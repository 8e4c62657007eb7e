package resilience

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Since(t time.Time) time.Duration        { return c.Now().Sub(t) }
func (c *fakeClock) Sleep(time.Duration)                    {}
func (c *fakeClock) Unix(sec int64, nsec int64) time.Time   { return time.Unix(sec, nsec) }
func (c *fakeClock) After(time.Duration) <-chan time.Time   { return make(chan time.Time) }
func (c *fakeClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// immediateTimer fires as soon as it is started
type immediateTimer struct {
	c      chan time.Time
	delays []time.Duration
}

func (t *immediateTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}
func (t *immediateTimer) Stop()               {}
func (t *immediateTimer) C() <-chan time.Time { return t.c }

type fakeRedisLimiter struct {
	allowed   int
	remaining int
	err       error
	calls     int
	lastLimit redis_rate.Limit
}

func (f *fakeRedisLimiter) Allow(_ context.Context, _ string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return &redis_rate.Result{Limit: limit, Allowed: f.allowed, Remaining: f.remaining, RetryAfter: 20 * time.Second}, nil
}

func newTestClient(t *testing.T, clock adapter.Clock) (*Client, *immediateTimer) {
	t.Helper()
	c := NewClient(ClientConfig{
		Upstream:         "krayin",
		BreakerThreshold: 5,
		BreakerTimeout:   300 * time.Second,
		Retry:            RetryConfig{Attempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
	}, NewMemoryState(), NewRateLimiter(nil, nil, clock), clock, adapter.NewJSON())
	timer := &immediateTimer{}
	c.retrier.timer = timer
	c.retrier.jitter = func() time.Duration { return 0 }
	return c, timer
}

func status(code int) error {
	return domain.NewUpstreamError("krayin", "create_lead", domain.IntPtr(code), "boom", nil)
}

// =============================================================================
// Retry
// =============================================================================

func TestExponentialJitter(t *testing.T) {
	b := &exponentialJitter{base: time.Second, max: 30 * time.Second, jitter: func() time.Duration { return 500 * time.Millisecond }}

	assert.Equal(t, 1500*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 2500*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 4500*time.Millisecond, b.NextBackOff())
	for i := 0; i < 10; i++ {
		b.NextBackOff()
	}
	assert.Equal(t, 30*time.Second, b.NextBackOff())

	b.Reset()
	assert.Equal(t, 1500*time.Millisecond, b.NextBackOff())
}

func TestRandomJitterBounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		j := randomJitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, time.Second)
	}
}

func TestDo_RetriesRetryableThenSucceeds(t *testing.T) {
	clock := newFakeClock()
	c, timer := newTestClient(t, clock)

	calls := 0
	v, err := Do(context.Background(), c, Operation{Name: "create_lead"}, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, status(503)
		}
		return 9, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.delays)
}

func TestDo_TerminalErrorsAreNotRetried(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 409, 422} {
		clock := newFakeClock()
		c, _ := newTestClient(t, clock)

		calls := 0
		_, err := Do(context.Background(), c, Operation{Name: "create_lead"}, func(ctx context.Context) (int, error) {
			calls++
			return 0, status(code)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls, "status %d", code)

		ue, ok := domain.AsUpstreamError(err)
		require.True(t, ok)
		assert.False(t, ue.Retryable())
		assert.Equal(t, 1, ue.Attempt)

		st, _, err := c.Breaker(Operation{}).State(context.Background())
		require.NoError(t, err)
		assert.Equal(t, BreakerClosed, st)
	}
}

func TestDo_429AndNetworkErrorsAreRetried(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)

	calls := 0
	_, err := Do(context.Background(), c, Operation{Name: "get_lead"}, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, status(429)
		}
		return 0, errors.New("dial tcp: connection refused")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	ue, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorCodeUnknown, ue.Code)
	assert.Nil(t, ue.Status)
	assert.True(t, ue.Retryable())
	assert.Equal(t, 3, ue.Attempt)
	assert.Equal(t, "krayin", ue.Upstream)
}

// =============================================================================
// Circuit breaker
// =============================================================================

func TestCircuitBreaker_OpensAfterThresholdAndHalfOpens(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	ctx := context.Background()
	op := Operation{Name: "create_lead"}

	var network atomic.Int32
	failing := func(ctx context.Context) (int, error) {
		network.Add(1)
		return 0, status(500)
	}

	// each call exhausts 3 attempts and records one breaker failure
	for i := 0; i < 5; i++ {
		_, err := Do(ctx, c, op, failing)
		require.Error(t, err)
	}
	assert.Equal(t, int32(15), network.Load())

	_, err := Do(ctx, c, op, failing)
	require.Error(t, err)
	ue, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorCodeServiceUnavailable, ue.Code)
	assert.Equal(t, 300*time.Second, ue.RemainingTime)
	assert.True(t, ue.Retryable())
	assert.Equal(t, int32(15), network.Load(), "open breaker must not reach the network")

	clock.Advance(299 * time.Second)
	_, err = Do(ctx, c, op, failing)
	ue, _ = domain.AsUpstreamError(err)
	assert.Equal(t, time.Second, ue.RemainingTime)
	assert.Equal(t, int32(15), network.Load())

	clock.Advance(time.Second)
	v, err := Do(ctx, c, op, func(ctx context.Context) (int, error) {
		network.Add(1)
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	st, _, err := c.Breaker(op).State(ctx)
	require.NoError(t, err)
	assert.Equal(t, BreakerClosed, st)
}

func TestCircuitBreaker_SingleTrialAndReopen(t *testing.T) {
	clock := newFakeClock()
	state := NewMemoryState()
	b := NewCircuitBreaker("krayin:consent", state, clock, 3, 300*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.RecordFailure(ctx))
	}
	ok, remaining, err := b.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 300*time.Second, remaining)

	clock.Advance(300 * time.Second)
	ok, _, err = b.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "first half-open caller is the trial call")

	ok, _, err = b.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "only one trial call at a time")

	require.NoError(t, b.RecordFailure(ctx))
	st, remaining, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, BreakerOpen, st)
	assert.Equal(t, 300*time.Second, remaining)
}

func TestDo_TerminalResponseWhileHalfOpenClosesBreaker(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	ctx := context.Background()
	op := Operation{Name: "get_lead"}

	for i := 0; i < 5; i++ {
		require.NoError(t, c.breaker.RecordFailure(ctx))
	}
	clock.Advance(300 * time.Second)

	_, err := Do(ctx, c, op, func(ctx context.Context) (int, error) { return 0, status(404) })
	ue, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, 404, ue.StatusCode())

	st, _, err := c.breaker.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, BreakerClosed, st)

	calls := 0
	v, err := Do(ctx, c, op, func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestDo_UnansweredHalfOpenCallReleasesSlot(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	ctx := context.Background()
	op := Operation{Name: "get_lead"}

	for i := 0; i < 5; i++ {
		require.NoError(t, c.breaker.RecordFailure(ctx))
	}
	clock.Advance(300 * time.Second)

	// the caller gives up before the upstream's health is known
	callCtx, cancel := context.WithCancel(ctx)
	_, err := Do(callCtx, c, op, func(ctx context.Context) (int, error) {
		cancel()
		return 0, status(503)
	})
	assert.ErrorIs(t, err, context.Canceled)

	st, _, err := c.breaker.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, BreakerHalfOpen, st)

	ok, _, err := c.breaker.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "the next caller gets the trial slot")
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	clock := newFakeClock()
	b := NewCircuitBreaker("chatwoot", NewMemoryState(), clock, 5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, b.RecordFailure(ctx))
	}
	require.NoError(t, b.RecordSuccess(ctx))
	for i := 0; i < 4; i++ {
		require.NoError(t, b.RecordFailure(ctx))
	}

	st, _, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, BreakerClosed, st)
}

func TestConsentOperationsUseStricterBreaker(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	ctx := context.Background()
	consent := Operation{Name: "update_contact_consent", Consent: true}

	for i := 0; i < 3; i++ {
		_, _ = Do(ctx, c, consent, func(ctx context.Context) (int, error) { return 0, status(502) })
	}

	_, err := Do(ctx, c, consent, func(ctx context.Context) (int, error) { return 1, nil })
	ue, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorCodeServiceUnavailable, ue.Code)

	// the regular breaker is untouched
	v, err := Do(ctx, c, Operation{Name: "get_lead"}, func(ctx context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

// =============================================================================
// Rate limiter
// =============================================================================

func TestRateLimiter_LocalFailsFast(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(nil, nil, clock)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		ok, _, err := l.Allow(ctx, "krayin:consent", 30)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, retryAfter, err := l.Allow(ctx, "krayin:consent", 30)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2*time.Second, retryAfter)

	clock.Advance(2 * time.Second)
	ok, _, err = l.Allow(ctx, "krayin:consent", 30)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDo_RateLimitedWithoutNetwork(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (int, error) {
		calls++
		return 1, nil
	}
	for i := 0; i < 60; i++ {
		_, err := Do(ctx, c, Operation{Name: "get_lead"}, fn)
		require.NoError(t, err)
	}

	_, err := Do(ctx, c, Operation{Name: "get_lead"}, fn)
	ue, ok := domain.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorCodeRateLimitExceeded, ue.Code)
	assert.Equal(t, time.Second, ue.RetryAfter)
	assert.Equal(t, 60, calls)
}

func TestRateLimiter_Distributed(t *testing.T) {
	clock := newFakeClock()
	monitor := &RedisMonitor{done: make(chan struct{})}
	monitor.available.Store(true)

	fake := &fakeRedisLimiter{allowed: 0}
	l := NewRateLimiter(fake, monitor, clock)

	ok, retryAfter, err := l.Allow(context.Background(), "krayin", 60)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retryAfter)
	assert.Equal(t, redis_rate.PerMinute(60), fake.lastLimit)

	fake.allowed = 1
	ok, _, err = l.Allow(context.Background(), "krayin", 60)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_FallsBackWhenRedisFails(t *testing.T) {
	clock := newFakeClock()
	monitor := &RedisMonitor{done: make(chan struct{})}
	monitor.available.Store(true)

	fake := &fakeRedisLimiter{err: errors.New("connection reset")}
	l := NewRateLimiter(fake, monitor, clock)

	ok, _, err := l.Allow(context.Background(), "krayin", 60)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, monitor.Available())

	_, _, err = l.Allow(context.Background(), "krayin", 60)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls, "redis is skipped while marked unavailable")
}

// =============================================================================
// Cache
// =============================================================================

type lead struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestCache_GetOrLoadAndInvalidate(t *testing.T) {
	c := NewCache("krayin", NewMemoryState(), adapter.NewJSON())
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) (lead, error) {
		loads++
		return lead{ID: 9, Name: "Ana"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, c, "leads", "9", 300*time.Second, load)
		require.NoError(t, err)
		assert.Equal(t, int64(9), v.ID)
	}
	assert.Equal(t, 1, loads)

	k1, err := c.Key(ctx, "leads", "9")
	require.NoError(t, err)
	assert.Equal(t, "crm-bridge:cache:krayin:leads:v0:9", k1)

	require.NoError(t, c.Invalidate(ctx, "leads"))
	k2, err := c.Key(ctx, "leads", "9")
	require.NoError(t, err)
	assert.Equal(t, "crm-bridge:cache:krayin:leads:v1:9", k2)

	_, err = GetOrLoad(ctx, c, "leads", "9", 300*time.Second, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)

	require.NoError(t, c.Delete(ctx, "leads", "9"))
	_, err = GetOrLoad(ctx, c, "leads", "9", 300*time.Second, load)
	require.NoError(t, err)
	assert.Equal(t, 3, loads)
}

func TestCache_LoadErrorIsNotCached(t *testing.T) {
	c := NewCache("krayin", NewMemoryState(), adapter.NewJSON())
	ctx := context.Background()

	_, err := GetOrLoad(ctx, c, "stages", "1", time.Hour, func(ctx context.Context) ([]lead, error) {
		return nil, status(500)
	})
	require.Error(t, err)

	v, err := GetOrLoad(ctx, c, "stages", "1", time.Hour, func(ctx context.Context) ([]lead, error) {
		return []lead{{ID: 1}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, v, 1)
}

func TestCache_StaleWhileRevalidate(t *testing.T) {
	state := NewMemoryState()
	c := NewCache("chatwoot", state, adapter.NewJSON())
	ctx := context.Background()

	v, err := GetOrLoadSWR(ctx, c, "reports", "summary", time.Minute, time.Hour, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// expire the fresh copy only
	k, err := c.Key(ctx, "reports", "summary")
	require.NoError(t, err)
	require.NoError(t, state.Delete(ctx, k))

	refreshed := make(chan struct{})
	var refreshes atomic.Int32
	reload := func(ctx context.Context) (int, error) {
		refreshes.Add(1)
		defer close(refreshed)
		return 2, nil
	}

	v, err = GetOrLoadSWR(ctx, c, "reports", "summary", time.Minute, time.Hour, reload)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "stale copy is served")

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("background refresh did not run")
	}

	require.Eventually(t, func() bool {
		_, ok, _ := state.Get(ctx, k)
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	v, err = GetOrLoadSWR(ctx, c, "reports", "summary", time.Minute, time.Hour, func(ctx context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestCache_RefreshLockPreventsHerd(t *testing.T) {
	state := NewMemoryState()
	c := NewCache("chatwoot", state, adapter.NewJSON())
	ctx := context.Background()

	k, err := c.Key(ctx, "reports", "summary")
	require.NoError(t, err)
	require.NoError(t, state.Set(ctx, k+staleKeySuffix, "5", time.Hour))
	ok, err := state.SetNX(ctx, k+refreshKeySuffix, "1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	v, err := GetOrLoadSWR(ctx, c, "reports", "summary", time.Minute, time.Hour, func(ctx context.Context) (int, error) {
		t.Error("refresh must not start while the lock is held")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

// =============================================================================
// Shared state and sanitization
// =============================================================================

func TestMemoryState(t *testing.T) {
	s := NewMemoryState()
	ctx := context.Background()

	n, err := s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, ok, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	ok, err = s.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, "lock", "c"))
	_, ok, err = s.Get(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Ana&lt;/b&gt;", SanitizeString("  <b>Ana</b>\x00 "))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))

	out := SanitizeMap(map[string]interface{}{
		"title": " <script>x</script> ",
		"count": 3,
		"nested": map[string]interface{}{
			"emails": []interface{}{" a@b.com ", 1},
		},
		"tags": []string{"<i>"},
	})
	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", out["title"])
	assert.Equal(t, 3, out["count"])
	assert.Equal(t, []interface{}{"a@b.com", 1}, out["nested"].(map[string]interface{})["emails"])
	assert.Equal(t, []string{"&lt;i&gt;"}, out["tags"])
}

func TestNewStack_ProcessLocalWithoutRedis(t *testing.T) {
	clock := newFakeClock()
	stack := NewStack(config.RedisConfig{}, clock)
	defer stack.Close()

	ctx := context.Background()
	require.NoError(t, stack.State.Set(ctx, "k", "v", time.Minute))
	v, ok, err := stack.State.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	allowed, _, err := stack.Limiter.Allow(ctx, "krayin", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, wait, err := stack.Limiter.Allow(ctx, "krayin", 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Positive(t, wait)

	guard := stack.Guard("krayin", config.ResilienceConfig{RequestsPerMinute: 10}, clock, adapter.NewJSON())
	assert.NotNil(t, guard)
}
