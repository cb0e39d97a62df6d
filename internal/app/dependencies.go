package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/config"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/migrations"
	"github.com/noah-isme/backend-candy/internal/notify"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/order"
	"github.com/noah-isme/backend-candy/internal/packaging"
	"github.com/noah-isme/backend-candy/internal/pricing"
	"github.com/noah-isme/backend-candy/internal/resilience"
)

// Dependencies are the infrastructure handles shared by the API, the worker
// and the command line tools.
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	DB      *pgxpool.Pool
	Queries *dbgen.Queries
	Redis   *redis.Client
}

// Options tune Open for the calling process.
type Options struct {
	// Name is reported to Postgres as application_name.
	Name         string
	SkipRedis    bool
	RedisMetrics bool
}

// Open connects to Postgres and Redis and verifies both respond.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if opts.Name != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = opts.Name
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	deps := &Dependencies{Config: cfg, Logger: logger, DB: pool, Queries: dbgen.New(pool)}
	if opts.SkipRedis {
		return deps, nil
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if opts.RedisMetrics {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	deps.Redis = rdb
	return deps, nil
}

// Close releases connections.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// Catalog builds the candy service with the configured cache and defaults.
func (d *Dependencies) Catalog() (*catalog.Service, error) {
	var cache *catalog.Cache
	if d.Redis != nil {
		cache = catalog.NewCache(d.Redis, d.Config.CatalogCacheTTL)
	}
	logger := d.Logger.With().Str("module", "catalog").Logger()
	return catalog.NewService(catalog.ServiceConfig{
		Queries:      d.Queries,
		Pool:         d.DB,
		Cache:        cache,
		Logger:       &logger,
		DefaultMode:  d.Config.PricingDefaultMode,
		DefaultLimit: d.Config.CatalogDefaultLimit,
		MaxLimit:     d.Config.CatalogMaxLimit,
	})
}

// Packaging builds the packaging service.
func (d *Dependencies) Packaging() *packaging.Service {
	return &packaging.Service{Q: d.Queries, Pool: d.DB}
}

// OrderLookup resolves order lines against the catalog behind a breaker.
func (d *Dependencies) OrderLookup(candies *catalog.Service, packs *packaging.Service) pricing.CatalogLookup {
	breaker := resilience.NewBreaker("catalog_lookup", 5, 0.5, d.Config.LookupBreakerCooldown).WithLogger(d.Logger)
	return resilience.Lookup{
		Next:    order.CatalogLookup{Candies: candies, Packaging: packs},
		Breaker: breaker,
	}
}

// Mailer returns the outbound email sender with retries.
func (d *Dependencies) Mailer() common.EmailSender {
	return resilience.Mailer{
		Next:        notify.LogSender{From: d.Config.NotifyEmailFrom, Logger: d.Logger},
		Breaker:     resilience.NewBreaker("email", 5, 0.5, time.Minute).WithLogger(d.Logger),
		Attempts:    3,
		BaseBackoff: 200 * time.Millisecond,
		Jitter:      0.2,
	}
}

// EmailNotifier builds the order email notifier from configuration.
func (d *Dependencies) EmailNotifier() notify.EmailNotifier {
	toggles := notify.DefaultTopicToggles()
	if len(d.Config.NotifyEmailTopics) > 0 {
		toggles = make(map[string]bool, len(toggles))
		for topic := range notify.DefaultTopicToggles() {
			toggles[topic] = false
		}
		for _, topic := range d.Config.NotifyEmailTopics {
			toggles[topic] = true
		}
	}
	return notify.EmailNotifier{Mail: d.Mailer(), Enabled: d.Config.NotifyEmailEnabled, TopicToggles: toggles}
}

// AsynqRedis converts REDIS_URL into asynq connection options.
func AsynqRedis(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url for asynq: %w", err)
	}
	return opt, nil
}

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit"})
}

// MigrateUp applies pending schema migrations.
func MigrateUp(databaseURL string) error {
	m, err := migrations.New(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	return migrations.Up(m)
}
