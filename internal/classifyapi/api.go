// Package classifyapi implements the REST API for the Packline Classify Plane.
// This is the warehouse-floor read path: it resolves orders against the rule
// catalogs with a local-first cache hierarchy so classification stays fast and
// available even when Redis or PostgreSQL are down.
package classifyapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/packline/packline/internal/cache"
	"github.com/packline/packline/internal/ruleengine"
	"github.com/packline/packline/internal/store"
)

// API holds dependencies and the router for the Classify Plane.
type API struct {
	// Router is the Chi multiplexer that handles HTTP requests.
	Router *chi.Mux

	// rules is the database fallback when both cache tiers miss.
	rules store.RuleRepository

	// l2 is the shared Redis cache holding catalog snapshots.
	l2 cache.Service

	// l1 is the in-process cache, first stop on every classification.
	l1 *cache.MemoryCache

	// engine resolves orders against a catalog.
	engine *ruleengine.Engine

	// maxImportBytes bounds the CSV upload size.
	maxImportBytes int64

	logger *slog.Logger
}

// NewAPI wires the classify plane. All dependencies are required; the plane
// cannot run degraded without its cache tiers, it only runs degraded without
// the backends behind them.
func NewAPI(ruleRepo store.RuleRepository, l2 cache.Service, l1 *cache.MemoryCache, engine *ruleengine.Engine, maxImportBytes int64, logger *slog.Logger) *API {
	if ruleRepo == nil {
		panic("classifyapi: rule repository cannot be nil")
	}
	if l2 == nil {
		panic("classifyapi: redis cache cannot be nil")
	}
	if l1 == nil {
		panic("classifyapi: memory cache cannot be nil")
	}
	if engine == nil {
		panic("classifyapi: rule engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxImportBytes <= 0 {
		maxImportBytes = 10 << 20
	}

	api := &API{
		Router:         chi.NewRouter(),
		rules:          ruleRepo,
		l2:             l2,
		l1:             l1,
		engine:         engine,
		maxImportBytes: maxImportBytes,
		logger:         logger,
	}

	api.configureRoutes()
	return api
}

// configureRoutes registers the middleware stack and endpoints.
// The classify plane is intentionally unauthenticated inside the warehouse
// network: pickers' scan guns and the station UI hit it directly.
func (a *API) configureRoutes() {
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.RealIP)
	a.Router.Use(requestLogger)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(render.SetContentType(render.ContentTypeJSON))

	a.Router.Get("/health", a.handleHealthCheck)

	a.Router.Route("/api/v1", func(r chi.Router) {
		r.Post("/classify", a.handleClassify)
		r.Post("/classify/import", a.handleImport)
	})
}

func (a *API) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// RunInvalidationListener blocks on the Redis invalidation channel and drops
// the local snapshot for each announced catalog, forcing the next request to
// re-read from L2. It returns when the context is cancelled or the
// subscription dies.
func (a *API) RunInvalidationListener(ctx context.Context) error {
	return a.l2.ListenInvalidations(ctx, func(t ruleengine.RuleType) {
		a.l1.Del(t)
		a.logger.Info("dropped local catalog snapshot",
			slog.String("rule_type", string(t)))
	})
}

// requestLogger logs each completed request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= 500 {
			level = slog.LevelError
		} else if ww.Status() >= 400 {
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
