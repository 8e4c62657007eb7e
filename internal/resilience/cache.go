package resilience

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
)

const (
	cacheKeyPrefix   = "crm-bridge:cache:"
	refreshLockTTL   = 30 * time.Second
	refreshTimeout   = 30 * time.Second
	staleKeySuffix   = ":stale"
	refreshKeySuffix = ":refresh"
)

// Cache stores JSON encoded values in SharedState under versioned namespaces.
// Invalidating a namespace bumps its version so every key derived from it misses.
type Cache struct {
	upstream string
	state    SharedState
	json     adapter.JSON
}

// NewCache creates a cache scoped to one upstream
func NewCache(upstream string, state SharedState, json adapter.JSON) *Cache {
	return &Cache{upstream: upstream, state: state, json: json}
}

func (c *Cache) versionKey(namespace string) string {
	return fmt.Sprintf("%s%s:%s:version", cacheKeyPrefix, c.upstream, namespace)
}

// Key derives the storage key for namespace/key at the namespace's current version
func (c *Cache) Key(ctx context.Context, namespace, key string) (string, error) {
	version, ok, err := c.state.Get(ctx, c.versionKey(namespace))
	if err != nil {
		return "", err
	}
	if !ok {
		version = "0"
	}
	return fmt.Sprintf("%s%s:%s:v%s:%s", cacheKeyPrefix, c.upstream, namespace, version, key), nil
}

// Invalidate drops every entry of namespace
func (c *Cache) Invalidate(ctx context.Context, namespace string) error {
	_, err := c.state.Incr(ctx, c.versionKey(namespace), 0)
	return err
}

// Delete drops one entry of namespace including its stale copy
func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	k, err := c.Key(ctx, namespace, key)
	if err != nil {
		return err
	}
	return c.state.Delete(ctx, k, k+staleKeySuffix)
}

func (c *Cache) read(ctx context.Context, key string, out interface{}) bool {
	raw, ok, err := c.state.Get(ctx, key)
	if err != nil {
		logger.WarnCtx(ctx, "Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := c.json.Unmarshal([]byte(raw), out); err != nil {
		logger.WarnCtx(ctx, "Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) write(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := c.json.Marshal(value)
	if err != nil {
		logger.WarnCtx(ctx, "Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.state.Set(ctx, key, string(raw), ttl); err != nil {
		logger.WarnCtx(ctx, "Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// GetOrLoad returns the cached value or calls load and caches its result for ttl.
// Cache backend failures degrade to calling load.
func GetOrLoad[T any](ctx context.Context, c *Cache, namespace, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	k, err := c.Key(ctx, namespace, key)
	if err != nil {
		logger.WarnCtx(ctx, "Cache unavailable, loading directly", zap.Error(err))
		return load(ctx)
	}

	var cached T
	if c.read(ctx, k, &cached) {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.write(ctx, k, v, ttl)
	return v, nil
}

// GetOrLoadSWR is GetOrLoad with a shadow copy kept for staleTTL. When the fresh entry
// has expired the shadow copy is served and a single background refresh is started.
func GetOrLoadSWR[T any](ctx context.Context, c *Cache, namespace, key string, ttl, staleTTL time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	k, err := c.Key(ctx, namespace, key)
	if err != nil {
		logger.WarnCtx(ctx, "Cache unavailable, loading directly", zap.Error(err))
		return load(ctx)
	}

	var cached T
	if c.read(ctx, k, &cached) {
		return cached, nil
	}

	var stale T
	if c.read(ctx, k+staleKeySuffix, &stale) {
		c.refreshInBackground(ctx, k, ttl, staleTTL, func(ctx context.Context) (interface{}, error) {
			return load(ctx)
		})
		return stale, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.write(ctx, k, v, ttl)
	c.write(ctx, k+staleKeySuffix, v, staleTTL)
	return v, nil
}

func (c *Cache) refreshInBackground(ctx context.Context, key string, ttl, staleTTL time.Duration, load func(ctx context.Context) (interface{}, error)) {
	lockKey := key + refreshKeySuffix
	acquired, err := c.state.SetNX(ctx, lockKey, "1", refreshLockTTL)
	if err != nil || !acquired {
		return
	}

	// detach from the request so the refresh outlives it
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	go func() {
		defer cancel()
		defer func() {
			_ = c.state.Delete(bg, lockKey)
		}()

		v, err := load(bg)
		if err != nil {
			logger.WarnCtx(bg, "Background cache refresh failed", zap.String("key", key), zap.Error(err))
			return
		}
		c.write(bg, key, v, ttl)
		c.write(bg, key+staleKeySuffix, v, staleTTL)
	}()
}
