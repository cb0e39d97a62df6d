package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/analytics"
	"github.com/noah-isme/backend-candy/internal/app"
	"github.com/noah-isme/backend-candy/internal/audit"
	"github.com/noah-isme/backend-candy/internal/auth"
	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/config"
	"github.com/noah-isme/backend-candy/internal/events"
	"github.com/noah-isme/backend-candy/internal/health"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/order"
	"github.com/noah-isme/backend-candy/internal/packaging"
	"github.com/noah-isme/backend-candy/internal/queue"
	"github.com/noah-isme/backend-candy/internal/ratelimit"
	"github.com/noah-isme/backend-candy/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "candy")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    "candy-api",
			ServiceVersion: envOrDefault("APP_VERSION", ""),
			Endpoint:       envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:       envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio:  envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:    cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.RunMigrations {
		if err := app.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, app.Options{Name: "candy-api", RedisMetrics: metricsEnabled})
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	redisOpt, err := app.AsynqRedis(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure task queue")
	}
	taskClient := asynq.NewClient(redisOpt)
	defer func() { _ = taskClient.Close() }()
	taskInspector := asynq.NewInspector(redisOpt)
	defer func() { _ = taskInspector.Close() }()
	tasks := queue.Client{Enqueuer: taskClient}

	catalogService, err := deps.Catalog()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	packagingService := deps.Packaging()

	eventLogger := logger.With().Str("module", "events").Logger()
	bus := &events.Bus{
		Store:     deps.Queries,
		Scheduler: tasks,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: &eventLogger}},
	}

	orderLogger := logger.With().Str("module", "order").Logger()
	orderService, err := order.NewService(order.ServiceConfig{
		Queries: deps.Queries,
		Pool:    deps.DB,
		Lookup:  deps.OrderLookup(catalogService, packagingService),
		Events:  bus,
		Logger:  &orderLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise order service")
	}

	authService, err := auth.NewService(auth.Config{
		Users:          deps.Queries,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}

	limiterStore, err := app.NewLimiterStore(deps.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	orderLimiter, err := ratelimit.NewFixed(limiterStore, cfg.OrderRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("ORDER_RATE_LIMIT")
	}
	onLimiterError := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
	}

	authLogger := logger.With().Str("module", "auth").Logger()
	loginHandler := &auth.Handler{
		Service:          authService,
		Logger:           &authLogger,
		AccessCookieName: cfg.AccessCookieName,
		CookieDomain:     cfg.CookieDomain,
		CookieSecure:     cfg.CookieSecure,
		CookieSameSite:   cfg.CookieSameSite,
	}

	auditLogger := logger.With().Str("module", "audit").Logger()
	auditService := &audit.Service{Store: deps.Queries, Enabled: cfg.AuditEnabled, Logger: &auditLogger}
	auditRecorder := audit.Recorder{Service: auditService, OnError: func(err error) {
		auditLogger.Error().Err(err).Msg("record audit entry")
	}}

	analyticsService := &analytics.Service{
		Q:            deps.Queries,
		R:            deps.Redis,
		TTL:          cfg.AnalyticsCacheTTL,
		DefaultRange: cfg.AnalyticsDefaultRange,
	}

	probes := []health.Probe{
		{Name: "db", Timeout: envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500), Check: deps.DB.Ping},
		{Name: "redis", Timeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300), Check: func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}},
	}

	loginLimiter := ratelimit.Sliding{
		Client: deps.Redis,
		Prefix: "ratelimit:login:",
		Window: cfg.LoginAttemptWindow,
		Max:    cfg.LoginMaxAttempts,
	}

	router := newRouter(routes{
		cfg:            cfg,
		logger:         logger,
		httpMetrics:    httpMetrics,
		tracing:        tracingEnabled,
		metricsEnabled: metricsEnabled,
		pprof:          envBool("OBS_ENABLE_PPROF", true),
		pprofUser:      envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""),
		pprofPass:      envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", ""),
		health:         health.Handler{Probes: probes},
		auth:           auth.Middleware{Service: authService, AccessCookie: cfg.AccessCookieName},
		candies:        catalog.NewHandler(catalog.HandlerConfig{Service: catalogService}),
		packaging:      packaging.Handler{Svc: packagingService, DefaultPerPage: cfg.CatalogDefaultLimit},
		orders:         order.Handler{Svc: orderService, DefaultPerPage: cfg.OrderDefaultLimit},
		users:          &user.Handler{Service: &user.Service{Q: deps.Queries}},
		login:          loginHandler,
		analytics:      &analytics.Handler{Svc: analyticsService},
		queueAdmin:     &queue.AdminHandler{Client: tasks, Inspector: taskInspector, Logger: logger},
		audit:          auditRecorder,
		auditLogs:      audit.Handler{Store: deps.Queries},
		idem:           common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL},
		orderLimit:     ratelimit.Handler{Limiter: orderLimiter, Scope: "orders", OnError: onLimiterError},
		loginLimit:     ratelimit.Handler{Limiter: loginLimiter, OnError: onLimiterError},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveAndWait(ctx, srv, logger)
}

func serveAndWait(ctx context.Context, srv *http.Server, logger zerolog.Logger) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
