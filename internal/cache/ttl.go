// Package cache provides a single-slot cache with per-entry expiry, used to
// hold the problem of the day between eviction boundaries.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTL holds at most one value. A read after the entry's expiry is a miss,
// but the entry is only removed by EvictAll or by the next Set.
// All methods are safe for concurrent use.
type TTL[V any] struct {
	mu    sync.Mutex
	store *gocache.Cache
	key   string
}

// NewTTL creates an empty cache. No janitor runs: expired entries stay
// resident until overwritten or evicted.
func NewTTL[V any]() *TTL[V] {
	return &TTL[V]{
		store: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the value stored under key if it has not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V

	raw, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores value under key for ttl, replacing any resident entry.
// A non-positive ttl stores an entry that is already expired.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != "" && c.key != key {
		c.store.Delete(c.key)
	}
	if ttl <= 0 {
		// go-cache treats 0 as "default expiration"; force an immediate miss.
		ttl = time.Nanosecond
	}
	c.store.Set(key, value, ttl)
	c.key = key
}

// EvictAll drops every entry regardless of remaining TTL.
func (c *TTL[V]) EvictAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Flush()
	c.key = ""
}

// Len returns the number of resident entries, expired or not.
func (c *TTL[V]) Len() int {
	return c.store.ItemCount()
}
