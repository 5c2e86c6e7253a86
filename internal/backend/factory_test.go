package backend

import (
	"testing"

	"phambili/internal/config"
	"phambili/internal/storage"
)

func TestOpenMemoryBackend(t *testing.T) {
	factory := NewFactory(nil)

	res, err := factory.Open(Config{Type: MemoryBackend, PersistenceVariant: "flat"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.KV == nil {
		t.Error("Open() returned nil KV")
	}
	if _, ok := res.Gateway.(*storage.FlatGateway); !ok {
		t.Errorf("Open() gateway = %T, want *storage.FlatGateway", res.Gateway)
	}
	if res.Cleanup != nil {
		t.Error("memory backend should need no cleanup")
	}
}

func TestOpenHistoryVariant(t *testing.T) {
	factory := NewFactory(nil)

	res, err := factory.Open(Config{Type: MemoryBackend, PersistenceVariant: "history"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := res.Gateway.(*storage.HistoryGateway); !ok {
		t.Errorf("Open() gateway = %T, want *storage.HistoryGateway", res.Gateway)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	factory := NewFactory(nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "redis"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"bad variant", Config{Type: MemoryBackend, PersistenceVariant: "versioned"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := factory.Open(tt.cfg); err == nil {
				t.Error("Open() accepted invalid config")
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		DataBackend:        "sqlite",
		SQLiteDBPath:       "/tmp/budget.db",
		PersistenceVariant: "history",
	}

	cfg, err := FromAppConfig(appCfg, true)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend {
		t.Errorf("Type = %v", cfg.Type)
	}
	if cfg.SQLiteDBPath != "/tmp/budget.db" {
		t.Errorf("SQLiteDBPath = %v", cfg.SQLiteDBPath)
	}
	if !cfg.Migrate {
		t.Error("Migrate = false, want true")
	}
	if cfg.PersistenceVariant != "history" {
		t.Errorf("PersistenceVariant = %v", cfg.PersistenceVariant)
	}

	if _, err := FromAppConfig(nil, false); err == nil {
		t.Error("FromAppConfig(nil) error = nil")
	}

	appCfg.DataBackend = "sheets"
	if _, err := FromAppConfig(appCfg, false); err == nil {
		t.Error("FromAppConfig() accepted unknown backend")
	}
}
