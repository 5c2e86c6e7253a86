// Package storage persists ledger state through a synchronous key-value
// store scoped by user identity, mirroring a browser profile's local
// storage. Two gateway shapes coexist: a flat per-user snapshot and an
// append-only per-user monthly history.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNoData is the normal negative result for a missing key or an absent
// saved budget. It is informational, never fatal.
var ErrNoData = errors.New("no saved data")

// KV is the storage collaborator: a synchronous string key-value store with
// no expiry. Implementations must return ErrNoData for missing keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is an in-process KV used for tests and the default backend.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return "", ErrNoData
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
