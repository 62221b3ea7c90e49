package registry

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Freshness describes how a cache entry relates to the configured TTL.
type Freshness int

const (
	// Fresh means the entry is within its TTL and may be served without a
	// network call.
	Fresh Freshness = iota
	// Stale means the entry has outlived its TTL. It is still servable as
	// a fallback, but a resolve should attempt a refresh first.
	Stale
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

// CacheStats summarizes the in-process cache for diagnostics.
type CacheStats struct {
	EntryCount            int     `json:"entry_count"`
	FreshCount            int     `json:"fresh_count"`
	StaleCount            int     `json:"stale_count"`
	OldestEntryAgeSeconds float64 `json:"oldest_entry_age_seconds"`
}

// cacheEntry is immutable; a refetch replaces the whole entry, never
// mutates it in place.
type cacheEntry struct {
	payload   []byte
	checksum  uint64
	fetchedAt time.Time
}

// memoryCache is the in-process key -> entry map. Staleness never deletes;
// it only marks an entry eligible for refetch while keeping it servable as
// a fallback. Safe for concurrent use.
type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newMemoryCache(ttl time.Duration, now func() time.Time) *memoryCache {
	return &memoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// get returns the entry for key together with its freshness. Reads are
// non-destructive.
func (c *memoryCache) get(key string) (cacheEntry, Freshness, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, Stale, false
	}
	if c.now().Sub(e.fetchedAt) < c.ttl {
		return e, Fresh, true
	}
	return e, Stale, true
}

// put stores payload under key as an atomic entry replacement and reports
// whether the payload differs from the previous entry. The fetchedAt
// timestamp never moves backwards for a key, even if two concurrent
// refreshes race.
func (c *memoryCache) put(key string, payload []byte) (changed bool) {
	sum := xxhash.Sum64(payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed := c.entries[key]
	fetchedAt := c.now()
	if existed && prev.fetchedAt.After(fetchedAt) {
		fetchedAt = prev.fetchedAt
	}
	c.entries[key] = cacheEntry{
		payload:   payload,
		checksum:  sum,
		fetchedAt: fetchedAt,
	}
	return !existed || prev.checksum != sum
}

// clear drops every entry.
func (c *memoryCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// stats summarizes the cache contents against the TTL.
func (c *memoryCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	var s CacheStats
	var oldest time.Duration
	for _, e := range c.entries {
		s.EntryCount++
		age := now.Sub(e.fetchedAt)
		if age < c.ttl {
			s.FreshCount++
		} else {
			s.StaleCount++
		}
		if age > oldest {
			oldest = age
		}
	}
	s.OldestEntryAgeSeconds = oldest.Seconds()
	return s
}
