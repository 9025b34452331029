// Package cache stores lookup bundles keyed by query.
//
// MemoryCache is the process-local store: entries expire a fixed TTL after
// insertion and the number of entries is bounded. RedisCache shares bundles
// between instances, and Tiered layers the two.
package cache

import (
	"context"
	"time"

	"numlookup/internal/lookup/models"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 10000
)

// Store is a bundle cache. Get returns sentinel.ErrNotFound on a miss,
// including when the entry has expired.
type Store interface {
	Get(ctx context.Context, key models.QueryKey) (models.Bundle, error)
	Put(ctx context.Context, key models.QueryKey, bundle models.Bundle) error
}

// Lookup results recorded against the cache metrics.
const (
	resultHit       = "hit"
	resultMiss      = "miss"
	resultExpired   = "expired"
	resultRemoteHit = "remote_hit"
)
