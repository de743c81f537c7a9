// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
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
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestLRU_BasicOperations(t *testing.T) {
	t.Parallel()

	c := New[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d,%v; want %d,true", key, got, ok, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("expected len 3, got %d", c.Len())
	}

	c.Add("a", 10)
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("expected updated value 10, got %d", got)
	}
	if c.Len() != 3 {
		t.Errorf("update must not grow the cache, len %d", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c := New[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// 'a' becomes most recently used, leaving 'b' as the eviction victim.
	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to be present", key)
		}
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, string](10, time.Minute).WithClock(clock.Now)

	c.Add("a", "x")
	c.Add("b", "y")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected 'a' before expiry")
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry exactly at ttl should still be present")
	}

	clock.Advance(time.Nanosecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expected 'a' to expire")
	}
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("expected CleanupExpired to reap 'b', removed %d", removed)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len %d", c.Len())
	}
}

func TestLRU_RemoveAndStats(t *testing.T) {
	t.Parallel()

	c := New[int, bool](0, 0)
	c.Add(1, true)
	if !c.Remove(1) {
		t.Error("expected Remove to report presence")
	}
	if c.Remove(1) {
		t.Error("second Remove should report absence")
	}

	c.Add(2, true)
	c.Get(2)
	c.Get(3)
	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d,%d,%d; want 1,1,1", hits, misses, size)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := New[string, int](100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (g*500+i)%250)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("capacity exceeded: %d", c.Len())
	}
}
