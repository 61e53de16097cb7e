package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value  string
	stored time.Time
}

// InMemoryCache is a process-local cache with optional TTL. It is safe for
// concurrent use.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryCache creates a cache whose entries live for ttlSeconds.
// A ttlSeconds of zero or less disables expiry.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	if ttlSeconds > 0 {
		c.ttl = time.Duration(ttlSeconds) * time.Second
	}
	return c
}

func (c *InMemoryCache) expired(e memoryEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.stored) > c.ttl
}

// Get returns the cached value for key. Expired entries are evicted on read.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.expired(e) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.stored.Equal(e.stored) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores value under key.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, stored: c.now()}
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet pruned.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}

// Entries returns all live entries.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.entries))
	for key, e := range c.entries {
		if !c.expired(e) {
			out[key] = e.value
		}
	}
	return out, nil
}

// Prune drops expired entries and returns how many were removed.
func (c *InMemoryCache) Prune() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

var _ Enumerable = (*InMemoryCache)(nil)
