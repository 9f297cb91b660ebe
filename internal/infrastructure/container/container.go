// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	planservice "github.com/nutriplan/dietplan/internal/application/plan"
	"github.com/nutriplan/dietplan/internal/infrastructure/ai/groq"
	"github.com/nutriplan/dietplan/internal/infrastructure/cache"
	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	"github.com/nutriplan/dietplan/internal/infrastructure/document/pdf"
	"github.com/nutriplan/dietplan/internal/infrastructure/http/server"
	"github.com/nutriplan/dietplan/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietplan/internal/infrastructure/nutrition/spoonacular"
	"github.com/nutriplan/dietplan/internal/infrastructure/persistence/memory"
	redisrepo "github.com/nutriplan/dietplan/internal/infrastructure/persistence/redis"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	"github.com/nutriplan/dietplan/pkg/healthcheck"
	"github.com/nutriplan/dietplan/pkg/logger"
)

// upstreamProbeTimeout bounds the optional live check of the model API
const upstreamProbeTimeout = 5 * time.Second

// Module provides every dependency injection module. configPath may be empty
// to search the default locations.
func Module(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		LoggerModule,
		MonitoringModule,
		CacheModule,
		ClientModule,
		ServiceModule,
		HealthModule,
		HTTPModule,
		LifecycleModule,
	)
}

// CoreModule is Module without the HTTP server, for one-shot commands
func CoreModule(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		LoggerModule,
		MonitoringModule,
		CacheModule,
		ClientModule,
		ServiceModule,
	)
}

// ConfigModule provides configuration
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	})
}

// LoggerModule provides logging
var LoggerModule = fx.Options(
	fx.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	}),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	func(log *zap.Logger) *monitoring.MetricsCollector {
		return monitoring.NewMetricsCollector(log)
	},
	NewTracingProvider,
)

// CacheModule provides the cache backend and the stores built on it
var CacheModule = fx.Provide(
	NewCacheRepository,
	func(cfg *config.Config, repo outbound.CacheRepository, metrics *monitoring.MetricsCollector, log *zap.Logger) outbound.DocumentStore {
		return cache.NewDocumentStore(repo, cfg.Cache.DocumentTTL, metrics, log)
	},
)

// ClientModule provides the external service adapters
var ClientModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.PlanGenerator {
		return groq.NewClient(cfg.AI, log)
	},
	NewNutritionProvider,
	func(cfg *config.Config, log *zap.Logger) outbound.DocumentRenderer {
		return pdf.NewRenderer(cfg.Document, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		generator outbound.PlanGenerator,
		nutrition outbound.NutritionProvider,
		renderer outbound.DocumentRenderer,
		tracer *monitoring.TracingProvider,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) inbound.PlanService {
		return planservice.NewPlanService(generator, nutrition, renderer, tracer, metrics, log)
	},
)

// HealthModule provides the health checker
var HealthModule = fx.Provide(NewHealthCheck)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(server.NewServer)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// NewTracingProvider builds the tracer from configuration and flushes it on stop
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    strings.ToLower(cfg.App.Name),
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		Insecure:       cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewCacheRepository selects the cache backend and closes it on stop
func NewCacheRepository(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
	repo, closeFn, err := OpenCacheRepository(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closeFn()
		},
	})
	return repo, nil
}

// OpenCacheRepository builds the configured cache backend outside of fx
func OpenCacheRepository(cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, func() error, error) {
	if cfg.Cache.Backend == "redis" {
		repo := redisrepo.NewCacheRepository(redisrepo.NewClient(cfg.Redis), cfg.Redis.KeyPrefix, log)
		log.Info("Using Redis cache", zap.String("addr", cfg.RedisAddr()))
		return repo, repo.Close, nil
	}

	log.Info("Using in-memory cache", zap.Int("max_entries", cfg.Cache.MaxEntries))
	repo, err := memory.NewCacheRepository(cfg.Cache.MaxEntries)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() error { return nil }, nil
}

// NewNutritionProvider returns the cached Spoonacular client, or nil when
// lookups are disabled
func NewNutritionProvider(
	cfg *config.Config,
	repo outbound.CacheRepository,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) outbound.NutritionProvider {
	if !cfg.Nutrition.Enabled {
		log.Info("Nutrition lookups are disabled")
		return nil
	}

	client := spoonacular.NewClient(cfg.Nutrition, log)
	return cache.NewNutritionCache(client, repo, cfg.Cache.NutritionTTL, metrics, log)
}

// NewHealthCheck registers the checks behind /health
func NewHealthCheck(cfg *config.Config, repo outbound.CacheRepository, log *zap.Logger) *healthcheck.HealthCheck {
	h := healthcheck.New(cfg.App.Version, log)
	if cfg.Monitoring.HealthCheckTTL > 0 {
		h.SetCacheTTL(cfg.Monitoring.HealthCheckTTL)
	}

	h.Register("cache", healthcheck.NewPingChecker("cache", repo))
	h.Register("groq_credentials", healthcheck.NewCredentialChecker("groq_credentials", "GROQ_API_KEY", cfg.AI.APIKey))
	if cfg.Nutrition.Enabled {
		h.Register("spoonacular_credentials",
			healthcheck.NewCredentialChecker("spoonacular_credentials", "SPOONACULAR_API_KEY", cfg.Nutrition.APIKey))
	}

	if cfg.Monitoring.CheckUpstreams && cfg.AI.APIKey != "" {
		headers := http.Header{}
		headers.Set("Authorization", "Bearer "+cfg.AI.APIKey)
		probe := healthcheck.NewExternalServiceChecker(
			"groq_api",
			strings.TrimSuffix(cfg.AI.BaseURL, "/")+"/models",
			upstreamProbeTimeout,
			headers,
		)
		h.Register("groq_api", healthcheck.NewCircuitChecker("groq_api", probe, healthcheck.DefaultCircuitBreakerConfig()))
	}

	return h
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting diet planner",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("address", srv.Addr()),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down diet planner")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
