package resilience

import (
	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/logger"
)

// Stack is the state and limiter shared by every guarded upstream of a process
type Stack struct {
	State   SharedState
	Limiter RateLimiter

	redis   adapter.RedisClient
	monitor *RedisMonitor
}

// NewStack builds the shared resilience state. An empty Redis address keeps it in process;
// otherwise Redis is used while reachable with an in-process fallback.
func NewStack(cfg config.RedisConfig, clock adapter.Clock) *Stack {
	if cfg.Addr == "" {
		logger.Info("Redis not configured, resilience state is process-local")
		return &Stack{
			State:   NewMemoryState(),
			Limiter: NewRateLimiter(nil, nil, clock),
		}
	}

	rc := adapter.NewRedisClient(cfg.Addr, cfg.Password, cfg.DB)
	monitor := NewRedisMonitor(rc, clock, cfg.HealthCheckInterval)
	return &Stack{
		State:   NewFailoverState(NewRedisState(rc), NewMemoryState(), monitor),
		Limiter: NewRateLimiter(rc.NewRateLimiter(), monitor, clock),
		redis:   rc,
		monitor: monitor,
	}
}

// Guard creates the guarded client of one upstream
func (s *Stack) Guard(upstream string, cfg config.ResilienceConfig, clock adapter.Clock, json adapter.JSON) *Client {
	return NewClient(ClientConfigFor(upstream, cfg), s.State, s.Limiter, clock, json)
}

// Close stops the health check and closes the Redis connection
func (s *Stack) Close() {
	if s.monitor != nil {
		s.monitor.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}
