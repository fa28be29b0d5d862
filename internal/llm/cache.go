package llm

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	expiry time.Time
	value  V
}

// ttlCache is a concurrency-safe map whose entries expire after a fixed TTL.
// Expired entries are dropped lazily on access and on every put.
type ttlCache[V any] struct {
	now     func() time.Time
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	mu      sync.Mutex
}

const defaultCacheTTL = 15 * time.Minute

func newTTLCache[V any](ttl time.Duration, now func() time.Time) *ttlCache[V] {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ttlCache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     now,
	}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(entry.expiry) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry[V]{value: value, expiry: now.Add(c.ttl)}
}

func (c *ttlCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
