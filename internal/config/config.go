package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration

	AccessCookieName   string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite
	HSTSEnabled        bool
	LoginMaxAttempts   int
	LoginAttemptWindow time.Duration

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	IdempotencyTTL    time.Duration
	OrderRateLimit    string
	OrderDefaultLimit int
	BodyLimitBytes    int64

	// LookupBreakerCooldown is how long order creation fails fast after
	// catalog lookups keep failing.
	LookupBreakerCooldown time.Duration

	AnalyticsCacheTTL     time.Duration
	AnalyticsDefaultRange int

	// PricingDefaultMode is used for legacy candies that carry neither an
	// explicit mode nor a decisive price.
	PricingDefaultMode pricing.Mode

	RunMigrations     bool
	WorkerConcurrency int
	RederiveLockTTL   time.Duration
	AuditEnabled      bool

	NotifyEmailEnabled bool
	NotifyEmailFrom    string
	// NotifyEmailTopics, when set, lists the only event topics that send mail.
	NotifyEmailTopics  []string
}

// Load reads the process environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadForTests(nil)
}

// LoadForTests reads the environment with overrides layered on top. An empty
// override value hides the variable. The process environment is not touched.
func LoadForTests(overrides map[string]string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}
	return build(&reader{k: k})
}

func build(r *reader) (*Config, error) {
	cfg := &Config{
		AppEnv:             r.str("APP_ENV", "development"),
		Port:               r.str("PORT", "8080"),
		DatabaseURL:        r.str("DATABASE_URL", ""),
		RedisURL:           r.str("REDIS_URL", ""),
		JWTSecret:          r.str("JWT_SECRET", ""),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS"),
		AccessTokenTTL:     r.duration("ACCESS_TOKEN_TTL", 12*time.Hour),

		AccessCookieName:   r.str("ACCESS_COOKIE_NAME", "access_token"),
		CookieDomain:       r.str("COOKIE_DOMAIN", ""),
		CookieSameSite:     sameSite(r.str("COOKIE_SAMESITE", "lax")),
		LoginMaxAttempts:   r.positive("LOGIN_MAX_ATTEMPTS", 10),
		LoginAttemptWindow: r.duration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),

		CatalogCacheTTL:     r.duration("CATALOG_CACHE_TTL", time.Minute),
		CatalogDefaultLimit: r.positive("CATALOG_DEFAULT_LIMIT", 20),
		CatalogMaxLimit:     r.positive("CATALOG_MAX_LIMIT", 100),

		IdempotencyTTL:    r.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		OrderRateLimit:    r.str("ORDER_RATE_LIMIT", "30-M"),
		OrderDefaultLimit: r.positive("ORDER_DEFAULT_LIMIT", 20),
		BodyLimitBytes:    int64(r.positive("BODY_LIMIT_BYTES", 1<<20)),

		LookupBreakerCooldown: r.duration("LOOKUP_BREAKER_COOLDOWN", 15*time.Second),

		AnalyticsCacheTTL:     r.duration("ANALYTICS_CACHE_TTL", 5*time.Minute),
		AnalyticsDefaultRange: r.positive("ANALYTICS_DEFAULT_RANGE_DAYS", 30),

		RunMigrations:     r.flag("RUN_MIGRATIONS", false),
		WorkerConcurrency: r.positive("WORKER_CONCURRENCY", 10),
		RederiveLockTTL:   r.duration("REDERIVE_LOCK_TTL", 10*time.Minute),
		AuditEnabled:      r.flag("AUDIT_ENABLED", true),

		NotifyEmailEnabled: r.flag("NOTIFY_EMAIL_ENABLED", false),
		NotifyEmailFrom:    r.str("NOTIFY_EMAIL_FROM", "shop@localhost"),
		NotifyEmailTopics:  r.list("NOTIFY_EMAIL_TOPICS"),
	}
	prod := cfg.IsProduction()
	cfg.CookieSecure = r.flag("COOKIE_SECURE", prod)
	cfg.HSTSEnabled = prod || r.flag("SECURITY_HSTS", false)
	cfg.CatalogMaxLimit = max(cfg.CatalogMaxLimit, cfg.CatalogDefaultLimit)

	if mode, err := pricing.ParseMode(r.str("PRICING_DEFAULT_MODE", string(pricing.ModeByWeight))); err != nil {
		r.fail("PRICING_DEFAULT_MODE", err)
	} else {
		cfg.PricingDefaultMode = mode
	}
	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if req.val == "" {
			r.errs = append(r.errs, fmt.Errorf("%s is required", req.key))
		}
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HTTPAddr returns the listen address, accepting PORT as "8080" or ":8080".
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// reader resolves typed values from koanf. A present but malformed value is
// recorded as an error rather than silently replaced by the default.
type reader struct {
	k    *koanf.Koanf
	errs []error
}

func (r *reader) raw(key string) (string, bool) {
	v := strings.TrimSpace(r.k.String(key))
	return v, v != ""
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) positive(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err == nil && n <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) flag(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.fail(key, fmt.Errorf("not a boolean: %q", v))
	return def
}

func sameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
