package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newClockedCache(ttlSeconds int) (*InMemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewInMemoryCache(ttlSeconds)
	c.now = clock.Now
	return c, clock
}

func TestInMemoryCache_GetSet(t *testing.T) {
	c := NewInMemoryCache(3600)

	if err := c.Set("abc:fr_FR", "Bonjour"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if val, ok := c.Get("abc:fr_FR"); !ok || val != "Bonjour" {
		t.Errorf("Get = %q, %v", val, ok)
	}
	if val, ok := c.Get("abc:de_DE"); ok || val != "" {
		t.Errorf("missing key should miss, got %q", val)
	}

	c.Set("abc:fr_FR", "Salut")
	if val, _ := c.Get("abc:fr_FR"); val != "Salut" {
		t.Errorf("overwrite failed, got %q", val)
	}
}

func TestInMemoryCache_TTL(t *testing.T) {
	c, clock := newClockedCache(60)

	c.Set("k", "v")
	clock.Advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be live")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be evicted on read")
	}
}

func TestInMemoryCache_NoTTL(t *testing.T) {
	c, clock := newClockedCache(0)

	c.Set("k", "v")
	clock.Advance(24 * 365 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Error("entries without TTL should never expire")
	}
	if n := c.Prune(); n != 0 {
		t.Errorf("Prune without TTL removed %d", n)
	}
}

func TestInMemoryCache_EntriesAndPrune(t *testing.T) {
	c, clock := newClockedCache(10)

	c.Set("old", "1")
	clock.Advance(11 * time.Second)
	c.Set("new", "2")

	entries, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries["new"] != "2" {
		t.Errorf("Entries should skip expired values, got %v", entries)
	}

	if n := c.Prune(); n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear should empty the cache")
	}
}

func TestInMemoryCache_Concurrent(t *testing.T) {
	c := NewInMemoryCache(3600)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		key := fmt.Sprintf("k%d", i%10)
		go func() {
			defer wg.Done()
			c.Set(key, "v")
		}()
		go func() {
			defer wg.Done()
			c.Get(key)
		}()
	}
	wg.Wait()

	if c.Len() != 10 {
		t.Errorf("Len = %d, want 10", c.Len())
	}
}
