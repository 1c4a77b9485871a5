package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// EventTracker records analytics events without blocking the caller
type EventTracker interface {
	Track(eventType entities.AnalyticsEventType, productID string, metadata map[string]interface{})
}

// BackendSelector decides which configuration backends are consulted and in what order
type BackendSelector struct {
	primary         providers.ConfigurationBackend
	secondary       providers.ConfigurationBackend
	primaryEnabled  bool
	fallbackEnabled bool
}

// NewBackendSelector builds the selection policy from feature flags. Either backend may be nil.
func NewBackendSelector(flags *FeatureFlags, primary, secondary providers.ConfigurationBackend) *BackendSelector {
	return &BackendSelector{
		primary:         primary,
		secondary:       secondary,
		primaryEnabled:  flags.PrimaryBackendEnabled() && primary != nil,
		fallbackEnabled: flags.FallbackEnabled(),
	}
}

// Backends returns the backends in consultation order
func (s *BackendSelector) Backends() []providers.ConfigurationBackend {
	var out []providers.ConfigurationBackend
	if s.primaryEnabled {
		out = append(out, s.primary)
		if s.fallbackEnabled && s.secondary != nil {
			out = append(out, s.secondary)
		}
		return out
	}
	if s.secondary != nil {
		out = append(out, s.secondary)
	}
	return out
}

// isPrimary reports whether position i of Backends is the primary backend
func (s *BackendSelector) isPrimary(i int) bool {
	return s.primaryEnabled && i == 0
}

// ConfigurationProvider loads the catalog once per session and serves it read-only
type ConfigurationProvider struct {
	selector   *BackendSelector
	normalizer *CatalogNormalizer
	tracker    EventTracker
	metrics    *observability.Metrics

	mu       sync.RWMutex
	current  *entities.Catalog
	warnings []ConfigValidationWarning
}

// NewConfigurationProvider creates a provider. tracker and metrics may be nil.
func NewConfigurationProvider(selector *BackendSelector, tracker EventTracker, metrics *observability.Metrics) *ConfigurationProvider {
	return &ConfigurationProvider{
		selector:   selector,
		normalizer: NewCatalogNormalizer(),
		tracker:    tracker,
		metrics:    metrics,
	}
}

// Load fetches the catalog from the first backend that yields products.
// It fails with a ConfigLoadError only when no consulted backend succeeds.
func (p *ConfigurationProvider) Load(ctx context.Context) (*entities.Catalog, error) {
	ctx, span := observability.StartSpan(ctx, "ConfigurationProvider.Load")
	defer span.End()

	logger := observability.ComponentFromContext(ctx, "config_provider")

	backends := p.selector.Backends()
	if len(backends) == 0 {
		err := apperrors.NewConfigLoadError("no configuration backend is enabled", nil)
		observability.RecordError(span, err)
		return nil, err
	}

	var causes []error
	for i, backend := range backends {
		catalog, warnings, err := p.fetch(ctx, backend)
		last := i == len(backends)-1

		// emptiness is judged after normalization dropped invalid products
		if err == nil && len(catalog.Products) == 0 && (!last || p.selector.isPrimary(i)) {
			err = fmt.Errorf("backend %s returned no usable products", backend.Name())
		}
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", backend.Name(), err))
			if !last {
				logger.Warn().Err(err).
					Str("source", backend.Name()).
					Str("fallback", backends[i+1].Name()).
					Msg("configuration backend failed, falling back")
			}
			continue
		}

		fallback := i > 0
		return p.accept(ctx, catalog, warnings, backend.Name(), fallback, causes), nil
	}

	err := apperrors.NewConfigLoadError("all configuration backends failed", errors.Join(causes...))
	observability.RecordError(span, err)
	logger.Error().Err(err).Msg("catalog load failed")
	return nil, err
}

// fetch reads one backend and normalizes the result
func (p *ConfigurationProvider) fetch(ctx context.Context, backend providers.ConfigurationBackend) (*entities.Catalog, []ConfigValidationWarning, error) {
	raw, err := backend.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("backend %s returned no catalog", backend.Name())
	}

	catalog, warnings := p.normalizer.Normalize(raw)
	catalog.Source = backend.Name()

	logger := observability.ComponentFromContext(ctx, "config_provider")
	for _, w := range warnings {
		logger.Warn().Err(w.Err()).
			Str("source", backend.Name()).
			Strs("product_ids", w.ProductIDs).
			Strs("paths", w.Paths).
			Msg("catalog validation warning")
	}
	return catalog, warnings, nil
}

func (p *ConfigurationProvider) accept(ctx context.Context, catalog *entities.Catalog, warnings []ConfigValidationWarning, source string, fallback bool, causes []error) *entities.Catalog {
	logger := observability.ComponentFromContext(ctx, "config_provider")

	p.mu.Lock()
	p.current = catalog
	p.warnings = warnings
	p.mu.Unlock()

	logger.Info().
		Str("source", source).
		Bool("fallback", fallback).
		Int("products", len(catalog.Products)).
		Int("warnings", len(warnings)).
		Msg("catalog loaded")

	observability.RecordCatalogLoad(ctx, p.metrics, source, fallback)

	if p.tracker != nil {
		p.tracker.Track(entities.AnalyticsEventCatalogLoaded, "", map[string]interface{}{
			"source":   source,
			"products": len(catalog.Products),
		})
		if fallback {
			meta := map[string]interface{}{"source": source}
			if len(causes) > 0 {
				meta["reason"] = errors.Join(causes...).Error()
			}
			p.tracker.Track(entities.AnalyticsEventCatalogFallback, "", meta)
		}
	}
	return catalog
}

// Reload drops memoized catalogs and loads again
func (p *ConfigurationProvider) Reload(ctx context.Context) (*entities.Catalog, error) {
	for _, backend := range p.selector.Backends() {
		invalidator, ok := backend.(providers.CacheInvalidator)
		if !ok {
			continue
		}
		if err := invalidator.Invalidate(ctx); err != nil {
			observability.Component("config_provider").Warn().Err(err).
				Str("source", backend.Name()).
				Msg("failed to invalidate catalog cache")
		}
	}
	return p.Load(ctx)
}

// Current returns the last loaded catalog, nil before the first successful load
func (p *ConfigurationProvider) Current() *entities.Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// LastWarnings returns the validation warnings raised by the last successful load
func (p *ConfigurationProvider) LastWarnings() []ConfigValidationWarning {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ConfigValidationWarning(nil), p.warnings...)
}
