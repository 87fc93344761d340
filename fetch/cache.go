package fetch

import (
	"sync"
	"time"
)

// Entry is a cached value and the time it was written.
type Entry struct {
	Value     any
	CreatedAt time.Time
	TTL       time.Duration
}

// Fresh reports whether the entry is still valid at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the cache's time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// Cache is an in-memory TTL cache keyed by caller-supplied strings. Expired
// entries are evicted when looked up; there is no background sweep. A Cache
// can be shared by executors through WithCache.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

// NewCache creates a cache whose Set uses ttl.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheDuration
	}
	c := &Cache{ttl: ttl, now: time.Now, entries: make(map[string]Entry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.Fresh(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with ttl.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.entries[key] = Entry{Value: value, CreatedAt: c.now(), TTL: ttl}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
