package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"tabletrack/internal/config"
	"tabletrack/internal/db"
	"tabletrack/internal/db/mock"
	applog "tabletrack/internal/log"
	"tabletrack/internal/production"
	"tabletrack/internal/server"
	"tabletrack/internal/store/docstore"
	"tabletrack/internal/store/gormstore"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	openDocumentStore   = func(path string) (production.Store, error) { return docstore.Open(path) }
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to open storage", "backend", cfg.Database.Backend, "error", err)
		return 1
	}
	svc := production.NewService(store)

	if cfg.Database.Seed {
		if _, err := svc.SeedCatalog(ctx); err != nil {
			applog.Error(ctx, "failed to seed catalog", "error", err)
			return 1
		}
	}

	srv, err := newServerFunc(server.Config{
		Addr:           cfg.Server.Addr,
		Service:        svc,
		AllowedOrigin:  cfg.CORS.AllowedOrigin,
		MetricsEnabled: cfg.Metrics.Enabled,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	signals, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-signals:
		applog.Info(ctx, "shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	applog.Info(ctx, "http server stopped")
	return 0
}

// openStore selects the storage gateway for cfg.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (production.Store, error) {
	switch cfg.Backend {
	case config.BackendDocument:
		applog.Info(ctx, "using document store", "path", cfg.DocumentPath)
		return openDocumentStore(cfg.DocumentPath)
	case "", config.BackendSQL:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	var (
		conn *gorm.DB
		err  error
	)
	if cfg.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		conn, err = newMockDatabaseFunc(ctx)
	} else {
		applog.Info(ctx, "connecting to database")
		conn, err = configureDatabase(cfg)
	}
	if err != nil {
		return nil, err
	}
	return gormstore.New(conn), nil
}
