package providers

import (
	"context"

	"github.com/zatekoja/productar/internal/domain/entities"
)

// ConfigurationBackend produces a catalog from one source
type ConfigurationBackend interface {
	// Name identifies the backend in logs, telemetry and cache keys
	Name() string

	// Fetch returns the catalog as stored by this backend, before normalization
	Fetch(ctx context.Context) (*entities.Catalog, error)
}

// CacheInvalidator is implemented by backends that memoize their results
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
