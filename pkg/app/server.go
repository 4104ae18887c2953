package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/shashiranjanraj/folio/internal/server"
	"github.com/shashiranjanraj/folio/pkg/logger"
	"github.com/shashiranjanraj/folio/pkg/metrics"
	"github.com/shashiranjanraj/folio/pkg/router"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 10 * time.Second

// Instance is a started application.
type Instance struct {
	app    *Application
	srv    *server.Server
	served chan error
	booted chan struct{}
}

// Addr is the bound listen address.
func (i *Instance) Addr() net.Addr { return i.srv.Addr() }

// URL is the base URL of the running server.
func (i *Instance) URL() string { return fmt.Sprintf("http://localhost:%d", i.srv.Port()) }

// Done receives the serve loop's result when it stops.
func (i *Instance) Done() <-chan error { return i.served }

// Booted is closed once the database attempt and the seeders have finished.
func (i *Instance) Booted() <-chan struct{} { return i.booted }

// Start binds the port and starts serving before any database work begins,
// then connects and seeds in the background. The listener accepts
// connections as soon as Start returns, whatever the database or Redis do.
// A config that fails Validate is refused before the port is bound.
func (a *Application) Start(ctx context.Context) (*Instance, error) {
	cfg := a.ctx.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	srv, err := server.Listen(":"+cfg.Port, a.Handler())
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		app:    a,
		srv:    srv,
		served: make(chan error, 1),
		booted: make(chan struct{}),
	}

	go func() { inst.served <- srv.Serve() }()

	if err := router.CheckIndex(cfg.StaticRoot, cfg.IndexFile); err != nil {
		a.ctx.Log.Warn("entry document missing, client routes will 404", "error", err)
	}
	a.ctx.Log.Info("Server running",
		"port", srv.Port(),
		"env", cfg.Env,
		"static_root", cfg.StaticRoot,
		"url", inst.URL(),
	)

	go func() {
		defer close(inst.booted)
		a.boot(ctx)
	}()

	return inst, nil
}

// Run starts the application and blocks until ctx is cancelled or the server
// fails, then shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	inst, err := a.Start(ctx)
	if err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.ctx.Log.Info("shutting down")
	case serveErr = <-inst.served:
		a.ctx.Log.Error("server stopped", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, inst.Shutdown(shutdownCtx))
}

// Shutdown drains the HTTP server and releases the database, Redis and the
// Mongo log sink.
func (i *Instance) Shutdown(ctx context.Context) error {
	a := i.app
	err := i.srv.Shutdown(ctx)

	select {
	case <-i.booted:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}

	if a.logSink != nil {
		logger.Detach()
		a.logSink.Close()
	}
	if a.rdb != nil {
		err = errors.Join(err, a.rdb.Close())
	}
	return errors.Join(err, a.ctx.DB.Close(ctx))
}

// boot connects the database and Redis side by side and, once the database
// is up, runs the seeders. Failures are logged and never stop the server.
func (a *Application) boot(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.connectRedis(ctx)
	}()
	defer wg.Wait()

	if err := a.ctx.DB.Connect(ctx); err != nil {
		return
	}

	db, err := a.ctx.DB.Database()
	if err != nil {
		return
	}

	if a.ctx.Config.LogToMongo {
		col := db.Collection("logs")
		if err := logger.EnsureLogIndexes(ctx, col); err != nil {
			a.ctx.Log.Warn("could not ensure log indexes", "error", err)
		}
		a.logSink = logger.NewMongoHandler(col, slog.LevelInfo)
		logger.Attach(a.logSink)
	}

	a.runSeeders(ctx)
}

func (a *Application) runSeeders(ctx context.Context) error {
	db, err := a.ctx.DB.Database()
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range a.seeders {
		err := s.fn(ctx, a.ctx, db)
		a.seeds.record(s.name, err)

		outcome := "ok"
		if err != nil {
			outcome = "failed"
			errs = append(errs, fmt.Errorf("seeder %q: %w", s.name, err))
			a.ctx.Log.Error("seeder failed", "seeder", s.name, "error", err)
		}
		metrics.SeederRuns.WithLabelValues(s.name, outcome).Inc()
	}
	return errors.Join(errs...)
}

// SeedNow connects, runs every seeder once and disconnects. It is the
// blocking form used by the seed command.
func (a *Application) SeedNow(ctx context.Context) error {
	if err := a.ctx.DB.Connect(ctx); err != nil {
		return err
	}
	defer a.ctx.DB.Close(context.Background()) //nolint:errcheck

	return a.runSeeders(ctx)
}
