package backend

import (
	"phambili/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the opened store, the persistence gateway layered on
// top of it, and an optional cleanup function.
type Result struct {
	KV      storage.KV
	Gateway storage.Gateway
	Cleanup CleanupFunc
}

// Factory opens persistence backends based on configuration
type Factory interface {
	// Open opens a backend instance based on the provided config
	Open(config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	Migrate      bool

	// Gateway shape: "flat" overwrites one snapshot per user,
	// "history" appends to a per-user record list.
	PersistenceVariant string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
