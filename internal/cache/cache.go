// Package cache provides a size-bounded in-memory cache with per-entry TTL.
// Eviction order is least-recently-used; expired entries are dropped lazily
// on access.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache wraps an LRU with per-entry expiry. Safe for concurrent use.
type Cache[V any] struct {
	lru        *lru.Cache[string, entry[V]]
	defaultTTL time.Duration
	now        func() time.Time
}

// New builds a cache holding at most maxEntries values. Entries stored
// without an explicit TTL expire after defaultTTL.
func New[V any](maxEntries int, defaultTTL time.Duration) (*Cache[V], error) {
	l, err := lru.New[string, entry[V]](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lru: l, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Get returns the live value for key. An expired entry is removed and
// reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. A non-positive ttl falls back to the cache's
// default TTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// Delete removes key, reporting whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	return c.lru.Remove(key)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
