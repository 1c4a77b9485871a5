package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

// CachedCatalogBackend wraps a ConfigurationBackend with a TTL memo keyed by backend name
type CachedCatalogBackend struct {
	backend providers.ConfigurationBackend
	cache   providers.CacheProvider
	ttl     time.Duration
}

// NewCachedCatalogBackend creates a new cached backend. A non-positive ttl disables caching.
func NewCachedCatalogBackend(backend providers.ConfigurationBackend, cache providers.CacheProvider, ttl time.Duration) *CachedCatalogBackend {
	return &CachedCatalogBackend{
		backend: backend,
		cache:   cache,
		ttl:     ttl,
	}
}

var (
	_ providers.ConfigurationBackend = (*CachedCatalogBackend)(nil)
	_ providers.CacheInvalidator     = (*CachedCatalogBackend)(nil)
)

func catalogCacheKey(backend string) string {
	return fmt.Sprintf("catalog:%s", backend)
}

// Name implements ConfigurationBackend
func (c *CachedCatalogBackend) Name() string {
	return c.backend.Name()
}

// Fetch returns the memoized catalog when present, otherwise fetches and stores it.
// Empty catalogs are not cached so a fallback decision is re-evaluated next time.
func (c *CachedCatalogBackend) Fetch(ctx context.Context) (*entities.Catalog, error) {
	if c.ttl <= 0 || c.cache == nil {
		return c.backend.Fetch(ctx)
	}

	logger := observability.ComponentFromContext(ctx, "catalog_cache")
	key := catalogCacheKey(c.backend.Name())

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var catalog entities.Catalog
		if err := json.Unmarshal(cached, &catalog); err == nil {
			return &catalog, nil
		}
		logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached catalog")
	case !errors.Is(err, providers.ErrCacheMiss):
		logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	catalog, err := c.backend.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog.Products) == 0 {
		return catalog, nil
	}

	if data, err := json.Marshal(catalog); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to cache catalog")
		}
	}
	return catalog, nil
}

// Invalidate drops the memoized catalog
func (c *CachedCatalogBackend) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, catalogCacheKey(c.backend.Name()))
}
