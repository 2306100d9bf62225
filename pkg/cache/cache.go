// Package cache memoizes expensive computations. Entries expire after a TTL,
// when the caller presents a different version token, or both. Concurrent
// misses on the same key share one load.
package cache

import (
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value    V
	version  uint64
	storedAt time.Time
}

type Cache[V any] struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group
}

type Option func(*options)

type options struct {
	ttl   time.Duration
	clock func() time.Time
}

// WithTTL bounds the age of an entry. Zero keeps entries until their version
// changes or they are invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func New[V any](opts ...Option) *Cache[V] {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		ttl:     o.ttl,
		clock:   o.clock,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the entry for key if it is still valid for version.
func (c *Cache[V]) Get(key string, version uint64) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.valid(e, version) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetOrLoad returns the cached value for key or calls load and stores its
// result. Errors are returned to every waiting caller and never cached.
func (c *Cache[V]) GetOrLoad(key string, version uint64, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key, version); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key+"@"+strconv.FormatUint(version, 10), func() (any, error) {
		if v, ok := c.Get(key, version); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, version, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (c *Cache[V]) Set(key string, version uint64, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, version: version, storedAt: c.clock()}
}

func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len counts stored entries, including stale ones not yet replaced.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) valid(e entry[V], version uint64) bool {
	if e.version != version {
		return false
	}
	return c.ttl <= 0 || c.clock().Sub(e.storedAt) < c.ttl
}
