package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"numlookup/internal/lookup/metrics"
	"numlookup/internal/lookup/models"
	"numlookup/pkg/platform/sentinel"
)

type entry struct {
	bundle     models.Bundle
	insertedAt time.Time
}

// MemoryCache is a TTL cache bounded to a maximum number of entries. When full,
// the least recently inserted entry is evicted. Reads never refresh an entry's
// position or lifetime.
type MemoryCache struct {
	mu      sync.Mutex
	entries *simplelru.LRU[models.QueryKey, entry]
	size    int
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	// latest is the newest insertedAt seen. Once an entry is inserted with an
	// older time, expiry no longer follows list order.
	latest    time.Time
	unordered bool
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func WithMetrics(m *metrics.Metrics) MemoryOption {
	return func(c *MemoryCache) {
		c.metrics = m
	}
}

// NewMemoryCache creates an in-memory cache. Non-positive ttl or maxEntries
// fall back to DefaultTTL and DefaultMaxEntries.
func NewMemoryCache(ttl time.Duration, maxEntries int, opts ...MemoryOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	// NewLRU only fails for a non-positive size.
	entries, _ := simplelru.NewLRU[models.QueryKey, entry](maxEntries, nil)

	c := &MemoryCache{
		entries: entries,
		size:    maxEntries,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the entry lifetime.
func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the bundle stored for key. An expired entry is removed and
// reported as sentinel.ErrNotFound.
func (c *MemoryCache) Get(_ context.Context, key models.QueryKey) (models.Bundle, error) {
	b, result := c.lookup(key)
	c.metrics.ObserveCacheLookup(result)
	if result != resultHit {
		return models.Bundle{}, sentinel.ErrNotFound
	}
	return b, nil
}

// lookup reads key without recording a metric and reports the outcome.
func (c *MemoryCache) lookup(key models.QueryKey) (models.Bundle, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Peek(key)
	if !ok {
		return models.Bundle{}, resultMiss
	}
	if c.expired(e) {
		c.entries.Remove(key)
		c.metrics.SetCacheEntries(c.entries.Len())
		return models.Bundle{}, resultExpired
	}
	return e.bundle, resultHit
}

// Put stores bundle under key, replacing any previous entry.
func (c *MemoryCache) Put(_ context.Context, key models.QueryKey, bundle models.Bundle) error {
	c.insert(key, bundle, c.now())
	return nil
}

// Len returns the number of stored entries, expired ones included until they
// are read or reclaimed.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// insert stores bundle as if it had been inserted at insertedAt. Expired
// entries are reclaimed before anything live is evicted.
func (c *MemoryCache) insert(key models.QueryKey, bundle models.Bundle, insertedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		_, oldest, ok := c.entries.GetOldest()
		if !ok || !c.expired(oldest) {
			break
		}
		c.entries.RemoveOldest()
	}
	if c.unordered && c.entries.Len() >= c.size && !c.entries.Contains(key) {
		c.reclaimExpired()
	}

	if insertedAt.After(c.latest) {
		c.latest = insertedAt
	} else if insertedAt.Before(c.latest) {
		c.unordered = true
	}

	if evicted := c.entries.Add(key, entry{bundle: bundle, insertedAt: insertedAt}); evicted {
		c.metrics.IncrementEvictions()
	}
	c.metrics.SetCacheEntries(c.entries.Len())
}

// reclaimExpired scans every entry. Only needed once backfilled entries have
// broken the link between list position and expiry.
func (c *MemoryCache) reclaimExpired() {
	for _, k := range c.entries.Keys() {
		if e, ok := c.entries.Peek(k); ok && c.expired(e) {
			c.entries.Remove(k)
		}
	}
}

func (c *MemoryCache) expired(e entry) bool {
	return c.now().Sub(e.insertedAt) >= c.ttl
}
