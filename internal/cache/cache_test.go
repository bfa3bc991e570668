// ABOUTME: Tests for the tool result cache.
// ABOUTME: Validates TTL expiry, per-entry TTL overrides, eviction order, cleanup and concurrency safety.

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration, maxSize int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(ttl, maxSize)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	v, ok := c.Get("never-set")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	c.Set("tables", []string{"matters", "contacts"}, 0)

	v, ok := c.Get("tables")
	require.True(t, ok)
	assert.Equal(t, []string{"matters", "contacts"}, v)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	c.Set("key", 1, 0)
	clock.Advance(59 * time.Second)
	_, ok := c.Get("key")
	assert.True(t, ok, "entry should live until its TTL")

	clock.Advance(time.Second)
	_, ok = c.Get("key")
	assert.False(t, ok, "entry should expire at its TTL")
}

func TestCache_PerEntryTTL(t *testing.T) {
	c, clock := newTestCache(t, time.Hour, 10)

	c.Set("short", "a", 10*time.Second)
	c.Set("default", "b", 0)

	clock.Advance(11 * time.Second)

	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("default")
	assert.True(t, ok)
}

func TestCache_SetRefreshes(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	c.Set("key", "old", 0)
	clock.Advance(40 * time.Second)
	c.Set("key", "new", 0)
	clock.Advance(40 * time.Second)

	v, ok := c.Get("key")
	require.True(t, ok, "re-setting should refresh the expiry")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictionOrder(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 3)

	c.Set("first", 1, 0)
	c.Set("second", 2, 0)
	c.Set("third", 3, 0)
	c.Set("fourth", 4, 0)

	_, ok := c.Get("first")
	assert.False(t, ok, "first should be evicted")
	for _, key := range []string{"second", "third", "fourth"} {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}

	// Refreshing moves an entry to the back of the eviction order
	c.Set("second", 22, 0)
	c.Set("fifth", 5, 0)

	_, ok = c.Get("third")
	assert.False(t, ok, "third should be evicted once second is refreshed")
	_, ok = c.Get("second")
	assert.True(t, ok)
}

func TestCache_Cleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, time.Hour)

	clock.Advance(2 * time.Minute)
	c.runCleanup()

	assert.Equal(t, 1, c.Len(), "cleanup should remove only expired entries")
	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestCache_Defaults(t *testing.T) {
	c := New(0, 0)
	defer c.Close()

	assert.Equal(t, DefaultTTL, c.ttl)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	assert.Equal(t, 1, c.Len(), "non-positive size should still hold one entry")
}

func TestCache_Concurrent(t *testing.T) {
	c := New(5*time.Minute, 1000)
	defer c.Close()

	const numGoroutines = 50
	const opsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := fmt.Sprintf("key-%d-%d", id%10, j%10)
				c.Set(key, j, 0)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	c.Set("final", true, 0)
	v, ok := c.Get("final")
	assert.True(t, ok)
	assert.Equal(t, true, v)
}

func TestCache_Close(t *testing.T) {
	c := New(time.Minute, 10)
	c.Close()
	c.Close()
}
