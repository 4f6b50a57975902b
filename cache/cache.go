package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giygas/govdata-api/logging"
	"github.com/giygas/govdata-api/metrics"
	"golang.org/x/sync/singleflight"
)

// Cache applies a TTL to a Store and collapses concurrent loads of one key
type Cache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

// New wraps store. A zero ttl keeps entries until they are invalidated.
func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// NewMemory is a Cache over a fresh MemoryStore without expiry
func NewMemory() *Cache {
	return New(NewMemoryStore(), 0)
}

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.StoredAt) > c.ttl
}

// lookup returns the raw value for key when present and fresh. Store read
// failures are logged and reported as a miss.
func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	e, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		logging.Warn("Cache read failed", "key", key, "error", err)
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false
	case !ok:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	case c.expired(e):
		metrics.CacheLookupsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return e.Value, true
}

// Get decodes the fresh value under key into out
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok := c.lookup(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	return c.store.Set(ctx, key, Entry{Value: raw, StoredAt: c.now()})
}

// Invalidate drops key
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear empties the store
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Keys lists the stored keys, fresh or not
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	return c.store.Keys(ctx)
}

// Len reports how many keys are stored
func (c *Cache) Len(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close closes the underlying store
func (c *Cache) Close() error {
	return c.store.Close()
}

// fill runs loader once per key across concurrent callers and stores the
// result. The loader runs detached from any single caller's cancellation;
// each caller still stops waiting when its own ctx ends.
func (c *Cache) fill(ctx context.Context, key string, force bool, loader func(context.Context) (any, error)) ([]byte, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		if !force {
			if raw, ok := c.lookup(loadCtx, key); ok {
				return raw, nil
			}
		}

		v, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding cache entry %s: %w", key, err)
		}
		if err := c.store.Set(loadCtx, key, Entry{Value: raw, StoredAt: c.now()}); err != nil {
			logging.Warn("Cache write failed", "key", key, "error", err)
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Load returns the cached value for key, calling loader on a miss or after
// expiry. Concurrent callers for one key share a single loader call. Loader
// errors are returned and nothing is stored.
func Load[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	var out T
	force := false
	if raw, ok := c.lookup(ctx, key); ok {
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		logging.Warn("Discarding undecodable cache entry", "key", key)
		force = true
	}
	return refresh(ctx, c, key, force, loader)
}

// Refresh calls loader unconditionally and replaces the stored value
func Refresh[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	return refresh(ctx, c, key, true, loader)
}

func refresh[T any](ctx context.Context, c *Cache, key string, force bool, loader func(context.Context) (T, error)) (T, error) {
	var out T
	raw, err := c.fill(ctx, key, force, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return out, nil
}
