// Package cache provides the time-bounded in-memory stores the repositories
// sit on. Entries carry their storage timestamp; staleness is decided at
// read time and never deletes anything — only an explicit invalidate or an
// overwriting put does.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TimedCache is a mutex-guarded keyed store with a per-instance TTL.
// GetFresh never returns a value older than the TTL; GetStale returns
// whatever is held regardless of age and exists purely as the last-resort
// fallback step before seed data.
type TimedCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	ttl   time.Duration

	hits   int64
	misses int64

	logger *zap.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a TimedCache with the given TTL. The TTL is injected rather
// than hard-coded so each resource family can carry its own freshness
// window.
func New[K comparable, V any](ttl time.Duration, logger *zap.Logger) *TimedCache[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimedCache[K, V]{
		items:  make(map[K]entry[V]),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Put stores value with the current timestamp, unconditionally replacing
// any prior entry. Last writer wins.
func (c *TimedCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, storedAt: c.now()}
}

// GetFresh returns the value only if present and younger than the TTL.
func (c *TimedCache[K, V]) GetFresh(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// GetStale returns the value regardless of freshness.
func (c *TimedCache[K, V]) GetStale(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Invalidate removes a single entry immediately.
func (c *TimedCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidateAll removes every entry immediately.
func (c *TimedCache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
	c.logger.Debug("cache cleared")
}

// Keys returns a snapshot of the stored keys, fresh or not.
func (c *TimedCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored entries, fresh or not.
func (c *TimedCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// TTL returns the current freshness window.
func (c *TimedCache[K, V]) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// SetTTL adjusts the freshness window at runtime. Existing entries are
// re-evaluated against the new TTL on their next read.
func (c *TimedCache[K, V]) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl != c.ttl {
		c.logger.Info("cache ttl changed", zap.Duration("from", c.ttl), zap.Duration("to", ttl))
		c.ttl = ttl
	}
}

// Stats returns cumulative hit and miss counts for GetFresh.
func (c *TimedCache[K, V]) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// SetClock overrides the time source. Tests use this to control freshness
// without sleeping.
func (c *TimedCache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
