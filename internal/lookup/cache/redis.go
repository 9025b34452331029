package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"numlookup/internal/lookup/models"
	"numlookup/pkg/platform/sentinel"
)

// Redis key prefix for cached bundles
const bundleKeyPrefix = "numlookup:bundle:"

// RedisCache stores JSON-encoded bundles in Redis with a TTL, so several
// instances share lookup results.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisCache constructs a Redis-backed bundle cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, now: time.Now}
}

// Get returns the bundle stored for key, or sentinel.ErrNotFound.
func (r *RedisCache) Get(ctx context.Context, key models.QueryKey) (models.Bundle, error) {
	data, err := r.client.Get(ctx, bundleKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Bundle{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Bundle{}, fmt.Errorf("redis get bundle: %w", err)
	}

	var bundle models.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return models.Bundle{}, fmt.Errorf("decode cached bundle: %w", err)
	}
	return bundle, nil
}

// Put stores bundle for whatever remains of its lifetime, measured from
// bundle.CreatedAt. A bundle that has already outlived the TTL is not stored.
func (r *RedisCache) Put(ctx context.Context, key models.QueryKey, bundle models.Bundle) error {
	ttl := r.ttl
	if !bundle.CreatedAt.IsZero() {
		ttl -= r.now().Sub(bundle.CreatedAt)
	}
	if ttl <= 0 {
		return nil
	}
	// Redis expiry has millisecond resolution.
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := r.client.Set(ctx, bundleKeyPrefix+key.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set bundle: %w", err)
	}
	return nil
}
