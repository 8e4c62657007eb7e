package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
)

// RedisMonitor tracks whether Redis is reachable. Backend errors mark it down
// immediately; a periodic ping brings it back.
type RedisMonitor struct {
	redis     adapter.RedisClient
	clock     adapter.Clock
	interval  time.Duration
	available atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewRedisMonitor pings Redis once and starts the health check loop
func NewRedisMonitor(rc adapter.RedisClient, clock adapter.Clock, interval time.Duration) *RedisMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	m := &RedisMonitor{
		redis:    rc,
		clock:    clock,
		interval: interval,
		done:     make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-process resilience state", zap.Error(err))
	} else {
		m.available.Store(true)
	}

	go m.run()
	return m
}

// Available reports whether Redis was reachable at the last check
func (m *RedisMonitor) Available() bool {
	return m.available.Load()
}

// MarkUnavailable switches callers to the fallback until the next successful ping
func (m *RedisMonitor) MarkUnavailable(err error) {
	if m.available.Swap(false) {
		logger.Warn("Redis error, falling back to in-process state", zap.Error(err))
	}
}

func (m *RedisMonitor) run() {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := m.redis.Ping(ctx).Err()
		cancel()

		wasAvailable := m.available.Swap(err == nil)
		if !wasAvailable && err == nil {
			logger.Info("Redis connection restored")
		}
	}
}

// Close stops the health check loop
func (m *RedisMonitor) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
