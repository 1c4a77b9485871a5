package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/productar/internal/adapters/cache"
	"github.com/zatekoja/productar/internal/adapters/database"
	"github.com/zatekoja/productar/internal/adapters/document"
	"github.com/zatekoja/productar/internal/adapters/events"
	"github.com/zatekoja/productar/internal/adapters/telemetry"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/clients/postgres"
	redisclient "github.com/zatekoja/productar/internal/infrastructure/clients/redis"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
	"github.com/zatekoja/productar/pkg/config"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

const memoryCacheSize = 64

// app holds the wired components shared by the subcommands
type app struct {
	cfg      *config.Config
	flags    *services.FeatureFlags
	metrics  *observability.Metrics
	pg       *postgres.Client
	redis    *redisclient.Client
	provider *services.ConfigurationProvider
	sink     *services.TelemetrySink
	closers  []func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	observability.InitLogger(observability.LogOptions{
		ServiceName: cfg.OTEL.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	logger := observability.GetLogger()

	a := &app{cfg: cfg, flags: services.NewFeatureFlags(cfg)}

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			a.closers = append(a.closers, shutdown)
		}
	}

	a.metrics, err = observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if cfg.Database.Enabled {
		a.pg, err = postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("PostgreSQL unavailable, primary backend and postgres telemetry disabled")
		} else {
			pg := a.pg
			a.closers = append(a.closers, func(context.Context) error { return pg.Close() })
		}
	}

	if cfg.Redis.Enabled {
		a.redis, err = redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, using in-memory catalog cache")
		} else {
			rc := a.redis
			a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
		}
	}

	transport, err := a.telemetryTransport()
	if err != nil {
		return nil, err
	}
	a.sink = services.NewTelemetrySink(cfg.Telemetry, transport, services.SystemClock{}, a.metrics)

	a.provider = services.NewConfigurationProvider(a.backendSelector(), a.sink, a.metrics)
	return a, nil
}

func (a *app) cacheProvider() providers.CacheProvider {
	if a.redis != nil {
		return cache.NewRedisAdapter(a.redis, "productar:")
	}
	return cache.NewMemoryAdapter(memoryCacheSize, a.cfg.Catalog.CacheTTL)
}

func (a *app) backendSelector() *services.BackendSelector {
	var cacheProvider providers.CacheProvider
	if a.cfg.Catalog.CacheTTL > 0 {
		cacheProvider = a.cacheProvider()
	}
	wrap := func(b providers.ConfigurationBackend) providers.ConfigurationBackend {
		if cacheProvider == nil {
			return b
		}
		return database.NewCachedCatalogBackend(b, cacheProvider, a.cfg.Catalog.CacheTTL)
	}

	var primary providers.ConfigurationBackend
	if a.pg != nil {
		primary = wrap(database.NewCatalogAdapter(a.pg, a.cfg.Catalog.PublishStatus))
	}
	secondary := wrap(document.NewFileBackend(a.cfg.Catalog.DocumentPath))

	return services.NewBackendSelector(a.flags, primary, secondary)
}

func (a *app) telemetryTransport() (providers.TelemetryTransport, error) {
	switch a.cfg.Telemetry.Transport {
	case "http":
		var headers map[string]string
		if a.cfg.Telemetry.APIKey != "" {
			headers = map[string]string{
				"apikey":        a.cfg.Telemetry.APIKey,
				"Authorization": "Bearer " + a.cfg.Telemetry.APIKey,
			}
		}
		return telemetry.NewHTTPTransport(a.cfg.Telemetry.Endpoint, 5*time.Second, headers), nil
	case "postgres":
		if a.pg == nil {
			return nil, fmt.Errorf("TELEMETRY_TRANSPORT=postgres requires a reachable database (DB_ENABLED=true)")
		}
		return database.NewAnalyticsAdapter(a.pg), nil
	default:
		return telemetry.NewLogTransport(), nil
	}
}

// eventBus returns the Redis relay when Redis is connected, otherwise an in-process bus
func (a *app) eventBus() providers.EventBus {
	if a.redis != nil {
		return events.NewRedisEventBus(a.redis, "")
	}
	return events.NewChannelBus(0)
}

// loadCatalog loads the catalog or returns the visible startup failure
func (a *app) loadCatalog(ctx context.Context) (*entities.Catalog, error) {
	catalog, err := a.provider.Load(ctx)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConfigLoad) {
			return nil, fmt.Errorf("product catalog unavailable, the experience cannot start: %w", err)
		}
		return nil, err
	}
	return catalog, nil
}

// close flushes telemetry and releases clients in reverse order
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.sink != nil {
		a.sink.Close(ctx)
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("shutdown finished with errors")
	}
}
