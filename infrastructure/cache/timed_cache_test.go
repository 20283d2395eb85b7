package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	current := start
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(d)
	}
	return now, advance
}

func TestTimedCache_FreshWithinTTL(t *testing.T) {
	c := New[string, int](5*time.Minute, nil)
	now, advance := newClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	c.SetClock(now)

	c.Put("k", 42)

	advance(4 * time.Minute)
	v, ok := c.GetFresh("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTimedCache_StaleAtTTLBoundary(t *testing.T) {
	c := New[string, int](5*time.Minute, nil)
	now, advance := newClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	c.SetClock(now)

	c.Put("k", 42)

	// An entry exactly TTL old is no longer fresh.
	advance(5 * time.Minute)
	_, ok := c.GetFresh("k")
	assert.False(t, ok)

	// But staleness never deletes it.
	v, ok := c.GetStale("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, c.Len())
}

func TestTimedCache_MissOnUnknownKey(t *testing.T) {
	c := New[string, int](time.Minute, nil)

	_, ok := c.GetFresh("missing")
	assert.False(t, ok)
	_, ok = c.GetStale("missing")
	assert.False(t, ok)
}

func TestTimedCache_PutOverwrites(t *testing.T) {
	c := New[string, string](time.Minute, nil)
	now, advance := newClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	c.SetClock(now)

	c.Put("k", "old")
	advance(2 * time.Minute)

	// The overwrite resets the entry's age.
	c.Put("k", "new")
	v, ok := c.GetFresh("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestTimedCache_Invalidate(t *testing.T) {
	c := New[string, int](time.Minute, nil)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Invalidate("a")
	_, ok := c.GetStale("a")
	assert.False(t, ok)
	_, ok = c.GetStale("b")
	assert.True(t, ok)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestTimedCache_SetTTLAppliesToExistingEntries(t *testing.T) {
	c := New[string, int](10*time.Minute, nil)
	now, advance := newClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	c.SetClock(now)

	c.Put("k", 1)
	advance(3 * time.Minute)

	_, ok := c.GetFresh("k")
	require.True(t, ok)

	c.SetTTL(2 * time.Minute)
	_, ok = c.GetFresh("k")
	assert.False(t, ok, "existing entry should be re-evaluated against the new TTL")

	// Non-positive TTLs are ignored.
	c.SetTTL(0)
	assert.Equal(t, 2*time.Minute, c.TTL())
}

func TestTimedCache_Stats(t *testing.T) {
	c := New[string, int](time.Minute, nil)
	c.Put("k", 1)

	c.GetFresh("k")
	c.GetFresh("k")
	c.GetFresh("missing")

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestTimedCache_ConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put(i%10, i)
			c.GetFresh(i % 10)
			c.GetStale(i % 10)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}

func TestTimedCache_KeysSnapshot(t *testing.T) {
	c := New[string, int](time.Minute, nil)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	assert.ElementsMatch(t, []string{"k0", "k1", "k2"}, c.Keys())
}
