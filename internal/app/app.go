// Package app provides the application initialization and lifecycle management
package app

import (
	"database/sql"
	"fmt"

	"github.com/tildaslashalef/reviewd/internal/config"
	"github.com/tildaslashalef/reviewd/internal/database"
	"github.com/tildaslashalef/reviewd/internal/llm"
	"github.com/tildaslashalef/reviewd/internal/loggy"
	"github.com/tildaslashalef/reviewd/internal/review"
)

// App represents the application instance with its dependencies
type App struct {
	Config *config.Config
	Logger *loggy.Logger
	Review *review.Service

	db *sql.DB
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}
	logger := loggy.GetGlobalLogger()

	logger.Info("Application initializing",
		"log_level", cfg.Logging.Level,
		"mock_mode", cfg.MockMode(),
	)

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Migrate(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	provider := llm.NewProvider(cfg, logger)
	if provider == nil {
		logger.Info("no provider credential configured, analysis runs in mock mode")
	}

	engine := review.NewEngine(provider, cfg.Claude, logger)
	repo := review.NewSQLRepository(db, logger)
	reviewService := review.NewService(repo, engine, logger)

	logger.Info("Application initialized successfully")
	return &App{
		Config: cfg,
		Logger: logger,
		Review: reviewService,
		db:     db,
	}, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// DB exposes the database handle for maintenance commands.
func (a *App) DB() *sql.DB {
	return a.db
}

// Shutdown gracefully releases application resources.
func (a *App) Shutdown() error {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	a.Logger.Info("Application shutdown complete")
	return nil
}
