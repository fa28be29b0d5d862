package llm

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTTLCache(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	cache := newTTLCache[string](time.Minute, clock.Now)

	_, ok := cache.get("missing")
	assert.False(t, ok)

	cache.put("a", "first")
	v, ok := cache.get("a")
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	clock.Advance(30 * time.Second)
	cache.put("b", "second")
	assert.Equal(t, 2, cache.size())

	clock.Advance(45 * time.Second)
	_, ok = cache.get("a")
	assert.False(t, ok, "entry older than the TTL must expire")

	v, ok = cache.get("b")
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	clock.Advance(time.Minute)
	cache.put("c", "third")
	assert.Equal(t, 1, cache.size(), "put drops expired entries")
}

func TestTTLCacheDefaults(t *testing.T) {
	cache := newTTLCache[int](0, nil)
	assert.Equal(t, defaultCacheTTL, cache.ttl)
	assert.NotNil(t, cache.now)
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	cache := newTTLCache[int](time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			cache.put(key, i)
			_, _ = cache.get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, cache.size())
}
