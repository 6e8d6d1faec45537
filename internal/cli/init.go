// Package cli provides common startup utilities for the ledger binary:
// logging, environment loading, configuration and storage initialization.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"ledger/internal/config"
	"ledger/internal/storage"
)

// SetupLogger initializes structured logging and sets it as the default.
// Logs go to stderr so the interactive menu on stdout stays clean.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the repository, runs migrations and seeds the default
// account. Exits the process on failure.
func InitSQLite(ctx context.Context, logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	if err := repo.Initialize(ctx); err != nil {
		repo.Close()
		logger.Error("Failed to seed default account", "error", err)
		os.Exit(1)
	}
	return repo
}
