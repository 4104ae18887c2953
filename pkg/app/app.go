// Package app wires configuration, the database connector, the route groups
// and the HTTP server into one runnable application.
//
//	a := app.New(config.Current()).
//	    API(routes.API).
//	    Auth(routes.Auth).
//	    Admin(routes.Admin).
//	    Seed("admin", seeders.Admin)
//
//	err := a.Run(ctx) // until ctx is cancelled
//
// The route groups and seeders are injected, so this package never imports
// project code.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/folio/config"
	"github.com/shashiranjanraj/folio/pkg/auth"
	"github.com/shashiranjanraj/folio/pkg/database"
	"github.com/shashiranjanraj/folio/pkg/logger"
	"github.com/shashiranjanraj/folio/pkg/middleware"
	"github.com/shashiranjanraj/folio/pkg/router"
)

// Context is what route groups and seeders receive instead of globals.
type Context struct {
	Config config.Config
	Log    *slog.Logger
	DB     *database.Mongo
	Tokens *auth.Tokens
	Errors middleware.ErrorBoundary
}

// RouteGroup builds the handler mounted under one prefix.
type RouteGroup func(c *Context) http.Handler

// Seeder runs once after the database connects.
type Seeder func(ctx context.Context, c *Context, db *mongo.Database) error

type namedSeeder struct {
	name string
	fn   Seeder
}

// Application is the central configuration object. Build one with New,
// attach groups and seeders, then call Run.
type Application struct {
	ctx *Context

	api, auth, admin RouteGroup
	seeders          []namedSeeder
	seeds            *seedStatus

	routerOnce sync.Once
	router     *router.Router
	rate       *middleware.SwapLimiter
	rdb        *redis.Client
	logSink    *logger.MongoHandler
}

// New creates an Application for cfg. Nothing is dialled yet.
func New(cfg config.Config) *Application {
	log := logger.L.With("app", "folio")
	c := &Context{
		Config: cfg,
		Log:    log,
		DB: database.New(database.Options{
			URI:              cfg.MongoURI,
			Database:         cfg.MongoDatabase,
			Fallback:         config.MongoDatabaseFallback(),
			SelectionTimeout: cfg.MongoSelectionTimeout,
		}, log),
		Tokens: auth.NewTokens(cfg.JWTSecret, 0),
		Errors: middleware.ErrorBoundary{Production: cfg.Production()},
	}
	return &Application{ctx: c, seeds: newSeedStatus()}
}

// Context exposes the shared application context.
func (a *Application) Context() *Context { return a.ctx }

// API sets the group mounted at /api.
func (a *Application) API(g RouteGroup) *Application {
	a.api = g
	return a
}

// Auth sets the group mounted at /api/auth.
func (a *Application) Auth(g RouteGroup) *Application {
	a.auth = g
	return a
}

// Admin sets the group mounted at /api/admin.
func (a *Application) Admin(g RouteGroup) *Application {
	a.admin = g
	return a
}

// Seed registers a seeder. Seeders run in registration order once the
// database connects during Run, and on demand through SeedNow.
func (a *Application) Seed(name string, fn Seeder) *Application {
	a.seeders = append(a.seeders, namedSeeder{name: name, fn: fn})
	return a
}

// Handler returns the full HTTP handler, building it on first use.
func (a *Application) Handler() http.Handler {
	return a.buildOnce().Handler()
}

// Routes lists every mounted route.
func (a *Application) Routes() ([]router.RouteInfo, error) {
	return a.buildOnce().Routes()
}

func (a *Application) buildOnce() *router.Router {
	a.routerOnce.Do(func() {
		a.router = buildRouter(a)
	})
	return a.router
}
