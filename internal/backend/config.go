package backend

import (
	"fmt"

	"phambili/internal/config"
)

// FromAppConfig converts the application config to backend config.
// migrate controls whether opening the store also applies pending schema
// migrations; only one process should do that.
func FromAppConfig(appConfig *config.Config, migrate bool) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:               backendType,
		SQLiteDBPath:       appConfig.SQLiteDBPath,
		Migrate:            migrate,
		PersistenceVariant: appConfig.PersistenceVariant,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	if c.PersistenceVariant != "" && c.PersistenceVariant != "flat" && c.PersistenceVariant != "history" {
		return fmt.Errorf("invalid persistence variant: %s", c.PersistenceVariant)
	}

	return nil
}

// BackendTypes returns all valid backend types
func BackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}
