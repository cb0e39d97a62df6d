package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/analytics"
	"github.com/noah-isme/backend-candy/internal/audit"
	"github.com/noah-isme/backend-candy/internal/auth"
	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/config"
	"github.com/noah-isme/backend-candy/internal/health"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/order"
	"github.com/noah-isme/backend-candy/internal/packaging"
	"github.com/noah-isme/backend-candy/internal/queue"
	"github.com/noah-isme/backend-candy/internal/ratelimit"
	"github.com/noah-isme/backend-candy/internal/security"
	"github.com/noah-isme/backend-candy/internal/user"
)

type routes struct {
	cfg            *config.Config
	logger         zerolog.Logger
	httpMetrics    *obs.HTTPMetrics
	tracing        bool
	metricsEnabled bool
	pprof          bool
	pprofUser      string
	pprofPass      string

	health     health.Handler
	auth       auth.Middleware
	candies    *catalog.Handler
	packaging  packaging.Handler
	orders     order.Handler
	users      *user.Handler
	login      *auth.Handler
	analytics  *analytics.Handler
	queueAdmin *queue.AdminHandler
	audit      audit.Recorder
	auditLogs  audit.Handler

	idem       common.Idem
	orderLimit ratelimit.Handler
	loginLimit ratelimit.Handler
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rt.tracing {
		r.Use(obs.TracingMiddleware)
	}
	if rt.httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: rt.httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rt.logger}.Middleware)
	r.Use(security.Headers{HSTS: rt.cfg.HSTSEnabled, NoStore: true}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(rt.cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.BodyLimit{Max: rt.cfg.BodyLimitBytes}.Middleware)

	if rt.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if rt.pprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), rt.pprofUser, rt.pprofPass))
	}
	r.Get("/health/live", rt.health.Live)
	r.Get("/health/ready", rt.health.Ready)

	requireAdmin := rt.auth.RequireRole(common.RoleAdmin)
	csrf := security.CSRF{SessionCookie: rt.cfg.AccessCookieName}.Middleware

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rt.auth.Authenticate)

		v.With(rt.loginLimit.Middleware).Post("/auth/login", rt.login.Login)
		v.With(rt.auth.RequireAuth).Get("/auth/me", rt.login.Me)

		v.Route("/candies", func(c chi.Router) {
			c.Get("/", rt.candies.List)
			c.Get("/{id}", rt.candies.Get)
			c.Group(func(admin chi.Router) {
				admin.Use(requireAdmin, csrf, rt.audit.Middleware)
				admin.Post("/", rt.candies.Create)
				admin.Patch("/{id}", rt.candies.Update)
				admin.Delete("/{id}", rt.candies.Delete)
			})
		})

		v.Route("/packaging", func(p chi.Router) {
			p.Get("/", rt.packaging.List)
			p.Get("/{id}", rt.packaging.Get)
			p.Group(func(admin chi.Router) {
				admin.Use(requireAdmin, csrf, rt.audit.Middleware)
				admin.Post("/", rt.packaging.Create)
				admin.Patch("/{id}", rt.packaging.Update)
				admin.Delete("/{id}", rt.packaging.Delete)
			})
		})

		v.Route("/orders", func(o chi.Router) {
			o.With(rt.orderLimit.Middleware, rt.idem.Middleware).Post("/", rt.orders.Create)
			o.Group(func(admin chi.Router) {
				admin.Use(requireAdmin, rt.audit.Middleware)
				admin.Get("/", rt.orders.List)
				admin.Get("/{id}", rt.orders.Get)
				admin.With(csrf, rt.idem.Middleware).Patch("/{id}", rt.orders.Update)
				admin.With(csrf, rt.idem.Middleware).Patch("/{id}/status", rt.orders.PatchStatus)
				admin.With(csrf).Delete("/{id}", rt.orders.Delete)
			})
		})

		v.Route("/users", func(u chi.Router) {
			u.Post("/", rt.users.Create)
			u.Group(func(admin chi.Router) {
				admin.Use(requireAdmin, rt.audit.Middleware)
				admin.Get("/", rt.users.List)
				admin.Get("/{id}", rt.users.Get)
				admin.With(csrf).Delete("/{id}", rt.users.Delete)
			})
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(requireAdmin, csrf, rt.audit.Middleware)
			admin.Post("/catalog/rederive", rt.queueAdmin.Rederive)
			admin.Get("/analytics/summary", rt.analytics.Summary)
			admin.Get("/audit", rt.auditLogs.List)
			admin.Get("/queues/{queue}", rt.queueAdmin.Stats)
			admin.Get("/queues/{queue}/archived", rt.queueAdmin.ListArchived)
			admin.Post("/queues/{queue}/replay", rt.queueAdmin.Replay)
		})
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
