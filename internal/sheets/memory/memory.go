// Package memory provides in-memory sheet adapters for tests and the
// default development setup.
package memory

import (
	"context"
	"fmt"
	"sync"

	"phambili/internal/core"
	ports "phambili/internal/sheets"
)

type appended struct {
	UserID   string
	Snapshot core.MonthlySnapshot
}

// Store holds rows to serve as an import source and records appended
// snapshots.
type Store struct {
	mu        sync.Mutex
	rows      [][]interface{}
	snapshots []appended
}

var (
	_ ports.RowSource        = (*Store)(nil)
	_ ports.SnapshotAppender = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// SetRows replaces the rows returned by ReadRows.
func (s *Store) SetRows(rows [][]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
}

func (s *Store) ReadRows(ctx context.Context) ([][]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]interface{}, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *Store) AppendSnapshot(ctx context.Context, userID string, snap core.MonthlySnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, appended{UserID: userID, Snapshot: snap})
	return fmt.Sprintf("memory!A%d", len(s.snapshots)), nil
}

// Snapshots returns the appended snapshots in order.
func (s *Store) Snapshots() []core.MonthlySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthlySnapshot, len(s.snapshots))
	for i, a := range s.snapshots {
		out[i] = a.Snapshot
	}
	return out
}

// SnapshotUsers returns the user IDs of appended snapshots in order.
func (s *Store) SnapshotUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.snapshots))
	for i, a := range s.snapshots {
		out[i] = a.UserID
	}
	return out
}
