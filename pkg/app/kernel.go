package app

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shashiranjanraj/folio/config"
	"github.com/shashiranjanraj/folio/pkg/cache"
	"github.com/shashiranjanraj/folio/pkg/database"
	"github.com/shashiranjanraj/folio/pkg/metrics"
	"github.com/shashiranjanraj/folio/pkg/middleware"
	"github.com/shashiranjanraj/folio/pkg/reqid"
	"github.com/shashiranjanraj/folio/pkg/response"
	"github.com/shashiranjanraj/folio/pkg/router"
)

// buildRouter assembles the global middleware, the probes, the mounted
// groups and the static/entry-document fallback.
func buildRouter(a *Application) *router.Router {
	cfg := a.ctx.Config
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics — outermost for accurate total latency
	//  2. Recovery          — panics become the error envelope
	//  3. Request ID        — inject unique ID before anything logs
	//  4. Logger            — logs request_id from context
	//  5. CORS              — set CORS headers
	//  6. Rate limiter      — /api only, probes and static files are exempt
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery(a.ctx.Errors))
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(cfg.CORSOrigins...)))
	if l := a.limiter(); l != nil {
		r.Use(underPrefix("/api", middleware.RateLimit(l)))
	}

	// Probes and metrics: no rate limit.
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "healthz", a.healthz)
	r.Get("/readyz", "readyz", a.readyz)

	// chi dispatches on the longest prefix, so /api/auth and /api/admin win
	// over /api regardless of mount order.
	r.Mount("/api/auth", a.group(a.auth))
	r.Mount("/api/admin", a.group(a.admin))
	r.Mount("/api", a.group(a.api))

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	// The config loader's own files may sit inside the static tree.
	site := router.SPA(cfg.StaticRoot, cfg.IndexFile, notFound).Hide(path.Dir(config.FileJSON), config.FileEnv)
	r.NotFound(site.ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// underPrefix applies mw only to requests at or below prefix.
func underPrefix(prefix string, mw func(http.Handler) http.Handler) router.Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// group builds g, or a JSON 404 responder when the group was not supplied.
func (a *Application) group(g RouteGroup) http.Handler {
	if g == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	}
	return g(a.ctx)
}

// limiter counts in process memory from the first request. A non-positive
// RATE_LIMIT disables limiting.
func (a *Application) limiter() middleware.Limiter {
	cfg := a.ctx.Config
	if cfg.RateLimit <= 0 {
		return nil
	}
	a.rate = middleware.NewSwapLimiter(middleware.NewMemoryLimiter(cfg.RateLimit, time.Minute))
	return a.rate
}

// connectRedis moves the limiter onto Redis once it answers, so every
// instance shares one window. Memory stays behind it for requests where
// Redis errors.
func (a *Application) connectRedis(ctx context.Context) {
	cfg := a.ctx.Config
	if a.rate == nil || cfg.RedisAddr == "" {
		return
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		a.ctx.Log.Warn("Redis unavailable, rate limiting per instance", "addr", cfg.RedisAddr, "error", err)
		return
	}

	a.rdb = rdb
	a.rate.Store(middleware.WithFallback(
		middleware.NewRedisLimiter(rdb, cfg.RateLimit, time.Minute),
		a.rate.Current(),
	))
	a.ctx.Log.Info("Redis connected, rate limiting shared", "addr", cfg.RedisAddr)
}

// healthz answers as long as the process serves HTTP.
func (a *Application) healthz(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status":   "ok",
		"database": a.ctx.DB.State().String(),
	})
}

// readyz is 503 until the database is connected.
func (a *Application) readyz(w http.ResponseWriter, r *http.Request) {
	state := a.ctx.DB.State()
	body := map[string]interface{}{
		"database": state.String(),
		"seeders":  a.seeds.snapshot(),
	}

	if state != database.StateConnected {
		response.Status(w, http.StatusServiceUnavailable, body)
		return
	}
	if err := a.ctx.DB.Ping(r.Context()); err != nil {
		if !a.ctx.Config.Production() {
			body["error"] = err.Error()
		}
		response.Status(w, http.StatusServiceUnavailable, body)
		return
	}
	response.Status(w, http.StatusOK, body)
}
