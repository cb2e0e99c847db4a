package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/askimmigrate/askimmigrate/src/agent"
	"github.com/askimmigrate/askimmigrate/src/config"
	"github.com/askimmigrate/askimmigrate/src/session"
	"github.com/askimmigrate/askimmigrate/src/storage"
)

// App represents the main application with all services
type App struct {
	Store    *storage.DB
	Sessions *session.Manager
	Answerer agent.Answerer
	Logger   *slog.Logger
	Config   *config.Config
}

// Options holds overrides for creating a new App instance
type Options struct {
	// DatabasePath overrides the configured database location
	DatabasePath string

	Logger *slog.Logger
}

// New creates a new App instance with all services initialized
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	dbPath := cfg.Storage.DatabasePath
	if opts.DatabasePath != "" {
		dbPath = opts.DatabasePath
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	manager := session.NewManager(store, session.ManagerConfig{
		HistoryWindow: cfg.Session.HistoryWindow,
		MaxTopics:     cfg.Session.MaxTopics,
		MaxVisaTypes:  cfg.Session.MaxVisaTypes,
		Logger:        logger,
	})

	return &App{
		Store:    store,
		Sessions: manager,
		Answerer: agent.NewFallback(manager),
		Logger:   logger,
		Config:   cfg,
	}, nil
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
