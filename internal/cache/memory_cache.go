package cache

import (
	"sync"
	"time"
)

// MemoryCache is an in-process cache with a fixed TTL per entry. It is safe
// for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time

	// nextSweep is when Set next drops expired entries
	nextSweep time.Time
}

// cacheEntry represents a cached item with expiration
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached value
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	// Check if expired
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return data, true
}

// Set stores a copy of value in the cache. At most once per TTL it also
// drops entries that expired without being read again.
func (c *MemoryCache) Set(key string, value []byte) error {
	data := make([]byte, len(value))
	copy(data, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !now.Before(c.nextSweep) {
		c.sweepLocked(now)
		c.nextSweep = now.Add(c.ttl)
	}
	c.entries[key] = cacheEntry{
		data:      data,
		expiresAt: now.Add(c.ttl),
	}
	return nil
}

// sweepLocked removes expired entries and returns how many were removed.
// c.mu must be held.
func (c *MemoryCache) sweepLocked(now time.Time) int {
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// size returns the number of entries, expired or not
func (c *MemoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
