// Package cli provides common initialization utilities shared by
// cmd/chefsight, cmd/chefsight-worker, and cmd/ingest.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"chefsight/internal/config"
	"chefsight/internal/storage"
)

// SetupLogger initializes structured logging with default settings and
// sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStorage opens the SQLite repository, exiting the process on
// failure.
func InitStorage(logger *slog.Logger, dbPath string) *storage.Repository {
	repo, err := storage.NewRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
