package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/pethealth/pethealth/pkg/api"
	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/auth"
	"github.com/pethealth/pethealth/pkg/config"
	"github.com/pethealth/pethealth/pkg/middleware"
	"github.com/pethealth/pethealth/pkg/observability"
	"github.com/pethealth/pethealth/pkg/pets"
	"github.com/pethealth/pethealth/pkg/species"
	"github.com/pethealth/pethealth/pkg/storage/postgres"
	"github.com/pethealth/pethealth/pkg/users"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pethealth: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	users   users.Store
	species species.Store
	pets    pets.Store
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	auditLogger, err := audit.Open(cfg.Observability.AuditLog)
	if err != nil {
		return err
	}

	var db *sql.DB
	var st stores
	switch cfg.Storage.Type {
	case config.StorageTypePostgres:
		db, err = openDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if metrics != nil {
			postgres.StartStatsRoutine(ctx, db, metrics, 0, logger)
		}
		st = stores{
			users:   users.NewPostgresStore(db),
			species: species.NewPostgresStore(db),
			pets:    pets.NewPostgresStore(db),
		}
	default:
		logger.Warnf("Using in-memory storage (storage type %q); data is lost on restart", cfg.Storage.Type)
		st = stores{
			users:   users.NewMemoryStore(),
			species: species.NewMemoryStore(),
			pets:    pets.NewMemoryStore(),
		}
	}

	if cfg.Storage.SeedSpecies {
		if err := seedSpecies(ctx, st.species, logger); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		redisClient, err = postgres.NewRedisClient(ctx, postgres.RedisConfig{
			URL:      cfg.Storage.RedisURL,
			PoolSize: cfg.Storage.RedisPoolSize,
		})
		if err != nil {
			return err
		}
		logger.Info("Connected to Redis")
	}

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency, auth.WithHashObserver(metrics))
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL,
		auth.WithRejectHook(func(reason string, err error) {
			metrics.RecordTokenRejection(reason)
			logger.WithError(err).WithField("reason", reason).Debug("token rejected")
		}))
	if err != nil {
		return err
	}

	authService := auth.NewService(st.users, hasher, tokens,
		auth.WithLogger(logger),
		auth.WithRecorder(metrics),
		auth.WithTimingEqualization(cfg.Auth.EqualizeLoginTiming),
	)
	speciesService := species.NewService(st.species, cfg.Storage.SpeciesCacheSize, species.WithCacheRecorder(metrics))
	petsService := pets.NewService(st.pets, st.users, speciesService)

	tracingName := ""
	if otelProviders != nil {
		tracingName = cfg.Observability.OTelServiceName
	}

	apiServer := api.NewServer(api.Config{
		Cookie: api.CookieConfig{
			Name:     cfg.Auth.CookieName,
			Domain:   cfg.Auth.CookieDomain,
			SameSite: cfg.Auth.CookieSameSite,
			Secure:   cfg.Auth.CookieSecure,
		},
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
		LoginWindow:        cfg.RateLimit.LoginWindow,
		TracingServiceName: tracingName,
		TrustProxyHeaders:  cfg.Server.TrustProxyHeaders,
	}, api.Dependencies{
		Auth:         authService,
		Species:      speciesService,
		Pets:         petsService,
		LoginLimiter: newLoginLimiter(ctx, cfg, redisClient),
		Logger:       logger,
		Metrics:      metrics,
		Audit:        auditLogger,
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient).
		WithVersion(version).
		WithMetrics(metrics))
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, httpServer, healthServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return auditLogger.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if db != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return db.Close()
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() { err = errors.Join(err, observability.PanicError(logger, "api server", recover())) }()
		logger.Infof("Pet health API listening on %s", httpServer.Addr)
		return listen(httpServer)
	})
	g.Go(func() (err error) {
		defer func() { err = errors.Join(err, observability.PanicError(logger, "health server", recover())) }()
		logger.Infof("Health and metrics listening on %s", healthServer.Addr)
		return listen(healthServer)
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	return g.Wait()
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", server.Addr, err)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*sql.DB, error) {
	db, err := postgres.Open(ctx, postgres.ConnectionConfig{
		URL:         cfg.Storage.PostgresURL,
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
		MaxLifetime: cfg.Storage.PostgresMaxLifetime,
		MaxIdleTime: cfg.Storage.PostgresMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to PostgreSQL")

	if cfg.Storage.RunMigrations {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}
	return db, nil
}

func seedSpecies(ctx context.Context, store species.Store, logger *observability.Logger) error {
	catalogue, err := species.DefaultCatalogue()
	if err != nil {
		return err
	}
	n, err := species.Seed(ctx, store, catalogue)
	if err != nil {
		return fmt.Errorf("failed to seed species: %w", err)
	}
	if n > 0 {
		logger.Infof("Seeded %d species", n)
	}
	return nil
}

// newLoginLimiter picks the shared Redis limiter when Redis is configured.
// Returns nil when login throttling is disabled.
func newLoginLimiter(ctx context.Context, cfg *config.Config, redisClient *redis.Client) middleware.Limiter {
	if cfg.RateLimit.LoginRequestsPerWindow == 0 {
		return nil
	}

	limitCfg := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.LoginRequestsPerWindow,
		WindowDuration:    cfg.RateLimit.LoginWindow,
		BurstSize:         cfg.RateLimit.LoginBurst,
	}
	if redisClient != nil {
		return middleware.NewDistributedRateLimiter(redisClient, limitCfg, "pethealth:ratelimit")
	}

	limiter := middleware.NewRateLimiter(limitCfg)
	limiter.StartCleanup(ctx)
	return limiter
}
