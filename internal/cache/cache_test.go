package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache[V any]() (*Cache[V], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[V](zap.NewNop())
	c.SetClock(clock.Now)
	return c, clock
}

func TestCache_GetAfterSet(t *testing.T) {
	c, _ := newTestCache[string]()

	c.Set("activities", "payload", time.Minute)

	v, ok := c.Get("activities")
	require.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache[int]()

	c.Set("projects", 42, 10*time.Second)

	clock.Advance(10 * time.Second)
	v, ok := c.Get("projects")
	require.True(t, ok, "entry is visible while age equals ttl")
	assert.Equal(t, 42, v)

	clock.Advance(time.Millisecond)
	_, ok = c.Get("projects")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry removed on access")
}

func TestCache_ExpiredEntryNotSweptWithoutAccess(t *testing.T) {
	c, clock := newTestCache[int]()

	c.Set("a", 1, time.Second)
	c.Set("b", 2, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestCache_InvalidateAndClear(t *testing.T) {
	c, _ := newTestCache[int]()

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Set("c", 3, time.Hour)

	c.Invalidate("b")
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	c, clock := newTestCache[string]()

	c.Set("k", "old", time.Second)
	clock.Advance(500 * time.Millisecond)
	c.Set("k", "new", time.Second)
	clock.Advance(900 * time.Millisecond)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			for j := 0; j < 100; j++ {
				c.Set(key, j, time.Minute)
				c.Get(key)
				if j%10 == 0 {
					c.Invalidate(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 5)
}
