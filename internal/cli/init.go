// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/phambili, cmd/phambili-worker, and cmd/oauth-init.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"phambili/internal/backend"
	"phambili/internal/config"
	applog "phambili/internal/log"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured persistence backend.
// Returns the backend result or exits the process on failure.
func OpenBackend(logger *applog.Logger, cfg *config.Config, migrate bool) *backend.Result {
	backendCfg, err := backend.FromAppConfig(cfg, migrate)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger.Logger).Open(backendCfg)
	if err != nil {
		logger.Error("Failed to open persistence backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}
