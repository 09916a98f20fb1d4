package service

import (
	"sync"
	"time"
)

// maxStatusCacheTTL caps how stale a cached status report may get.  The
// logical status projection is a read model; a short TTL keeps floor-plan
// polling cheap without letting the view drift far from reality.
const maxStatusCacheTTL = 60 * time.Second

// StatusCache is an explicit TTL cache for logical status reports, keyed by
// restaurant.  It is owned by the status engine instance that constructed
// it, uses an injected clock, and is invalidated by an explicit call from
// the lifecycle manager after every committed mutation.  Correctness-
// sensitive paths (walk-in assignment) bypass it entirely.
type StatusCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uint64]statusCacheEntry
}

type statusCacheEntry struct {
	report  []TableStatus
	expires time.Time
}

// NewStatusCache builds a cache with the given TTL and clock.  A zero or
// negative TTL disables caching; TTLs above 60s are clamped.
func NewStatusCache(ttl time.Duration, now func() time.Time) *StatusCache {
	if ttl > maxStatusCacheTTL {
		ttl = maxStatusCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &StatusCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[uint64]statusCacheEntry),
	}
}

// Get returns the cached report for a restaurant if it has not expired.
func (c *StatusCache) Get(restaurantID uint64) ([]TableStatus, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[restaurantID]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, restaurantID)
		return nil, false
	}
	return e.report, true
}

// Set stores a freshly computed report.
func (c *StatusCache) Set(restaurantID uint64, report []TableStatus) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[restaurantID] = statusCacheEntry{report: report, expires: c.now().Add(c.ttl)}
}

// Invalidate drops the restaurant's cached report.  Called after every
// committed reservation or table mutation.
func (c *StatusCache) Invalidate(restaurantID uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, restaurantID)
}
