package cache

import (
	"context"
	"errors"
	"log/slog"

	"numlookup/internal/lookup/models"
	"numlookup/pkg/platform/sentinel"
)

// Tiered serves reads from the in-memory cache and falls back to a shared
// remote store. Remote failures degrade to misses; they are logged and never
// returned to the caller.
type Tiered struct {
	local  *MemoryCache
	remote Store
	logger *slog.Logger
}

// NewTiered layers local in front of remote. A nil logger discards output.
func NewTiered(local *MemoryCache, remote Store, logger *slog.Logger) *Tiered {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tiered{local: local, remote: remote, logger: logger}
}

// Get checks the local cache first, then the remote store. A remote hit is
// copied into the local cache with its original creation time so it expires
// at the same moment in both tiers.
func (t *Tiered) Get(ctx context.Context, key models.QueryKey) (models.Bundle, error) {
	b, localResult := t.local.lookup(key)
	if localResult == resultHit {
		t.local.metrics.ObserveCacheLookup(resultHit)
		return b, nil
	}

	b, err := t.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			t.logger.WarnContext(ctx, "remote cache read failed",
				"number", key.Masked(),
				"error", err,
			)
		}
		t.local.metrics.ObserveCacheLookup(localResult)
		return models.Bundle{}, sentinel.ErrNotFound
	}

	insertedAt := b.CreatedAt
	if insertedAt.IsZero() {
		insertedAt = t.local.now()
	}
	if t.local.now().Sub(insertedAt) >= t.local.TTL() {
		t.local.metrics.ObserveCacheLookup(localResult)
		return models.Bundle{}, sentinel.ErrNotFound
	}
	t.local.insert(key, b, insertedAt)
	t.local.metrics.ObserveCacheLookup(resultRemoteHit)
	return b, nil
}

// Put stores bundle in both tiers. Only a local failure is returned.
func (t *Tiered) Put(ctx context.Context, key models.QueryKey, bundle models.Bundle) error {
	if err := t.local.Put(ctx, key, bundle); err != nil {
		return err
	}
	if err := t.remote.Put(ctx, key, bundle); err != nil {
		t.logger.WarnContext(ctx, "remote cache write failed",
			"number", key.Masked(),
			"error", err,
		)
	}
	return nil
}
