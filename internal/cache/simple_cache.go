package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

// SimpleCache is a map-backed cache safe for concurrent use. Expired entries
// are dropped lazily on Get or in bulk by PurgeExpired.
type SimpleCache[K comparable, V any] struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	max   int
	items map[K]entry[V]
}

// Options controls construction of a SimpleCache.
type Options struct {
	// Clock defaults to the real clock.
	Clock clockwork.Clock
	// MaxEntries bounds the cache; when full, Set purges expired entries and
	// drops the write if still full. Zero means unbounded.
	MaxEntries int
}

func NewSimpleCache[K comparable, V any](opts Options) *SimpleCache[K, V] {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SimpleCache[K, V]{
		clock: clock,
		max:   opts.MaxEntries,
		items: make(map[K]entry[V]),
	}
}

func (c *SimpleCache[K, V]) expired(e entry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (c *SimpleCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.expired(e, c.clock.Now()) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

func (c *SimpleCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if _, exists := c.items[key]; !exists && c.max > 0 && len(c.items) >= c.max {
		c.purgeLocked(now)
		if len(c.items) >= c.max {
			return
		}
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: exp}
}

func (c *SimpleCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *SimpleCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.clock.Now()
	count := 0
	for _, e := range c.items {
		if !c.expired(e, now) {
			count++
		}
	}
	return count
}

func (c *SimpleCache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(c.clock.Now())
}

func (c *SimpleCache[K, V]) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range c.items {
		if c.expired(e, now) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

var _ Cache[any, any] = (*SimpleCache[any, any])(nil)
