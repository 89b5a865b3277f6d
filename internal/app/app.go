package app

import (
	"context"
	"fmt"
	"os"

	"github.com/brightpath/learning-core/internal/content"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/services"
)

// App owns the wired engine: logger, repository factory and services. It is
// the embedding point for callers that host the engine inside a larger
// process.
type App struct {
	Log      *logger.Logger
	Cfg      Config
	Factory  *repos.Factory
	Services Services
	Loader   *content.Loader
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	factory := repos.NewFactory(log, cfg.Factory)
	if err := factory.Ready(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("init persistence: %w", err)
	}

	serviceset, err := wireServices(log, cfg, factory)
	if err != nil {
		log.Sync()
		return nil, err
	}

	return &App{
		Log:      log,
		Cfg:      cfg,
		Factory:  factory,
		Services: serviceset,
		Loader:   content.NewLoader(log),
	}, nil
}

// SyncContentDir loads every document under the configured content directory
// and syncs the batch. With no directory configured it is a no-op.
func (a *App) SyncContentDir(ctx context.Context) ([]services.SyncReport, error) {
	if a.Cfg.ContentDir == "" {
		a.Log.Info("No content directory configured, skipping sync")
		return nil, nil
	}
	docs, err := a.Loader.LoadDir(a.Cfg.ContentDir)
	if err != nil {
		return nil, err
	}
	return a.Services.Sync.SyncBatch(ctx, docs, a.Cfg.SyncDryRun), nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Factory != nil {
		a.Factory.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
