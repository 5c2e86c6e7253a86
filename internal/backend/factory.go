package backend

import (
	"fmt"
	"log/slog"

	"phambili/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// Open implements Factory.Open
func (f *DefaultFactory) Open(config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.openSQLite(config)
	case MemoryBackend:
		return f.openMemory(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) openSQLite(config Config) (*Result, error) {
	if config.Migrate {
		if err := storage.RunMigrations(config.SQLiteDBPath); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	f.logger.Info("Initialized sqlite backend",
		"db_path", config.SQLiteDBPath,
		"migrated", config.Migrate)

	return &Result{
		KV:      kv,
		Gateway: gatewayFor(config.PersistenceVariant, kv),
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) openMemory(config Config) (*Result, error) {
	kv := storage.NewMemory()

	f.logger.Info("Initialized memory backend")

	return &Result{
		KV:      kv,
		Gateway: gatewayFor(config.PersistenceVariant, kv),
		Cleanup: nil,
	}, nil
}

func gatewayFor(variant string, kv storage.KV) storage.Gateway {
	if variant == "history" {
		return storage.NewHistoryGateway(kv)
	}
	return storage.NewFlatGateway(kv)
}
