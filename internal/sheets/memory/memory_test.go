package memory

import (
	"context"
	"testing"

	"phambili/internal/core"
)

func TestReadRowsReturnsCopy(t *testing.T) {
	s := New()
	s.SetRows([][]interface{}{
		{"Category", "Amount"},
		{"Rent", "5000"},
	})

	rows, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	rows[0] = nil
	again, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again[0] == nil {
		t.Fatal("mutating returned rows leaked into the store")
	}
}

func TestAppendSnapshot(t *testing.T) {
	s := New()
	snap := core.MonthlySnapshot{
		MonthKey:   "2025-07",
		Income:     core.Money{Cents: 1000000},
		TotalSpent: core.Money{Cents: 620000},
	}

	ref, err := s.AppendSnapshot(context.Background(), "u1", snap)
	if err != nil {
		t.Fatal(err)
	}
	if ref != "memory!A1" {
		t.Fatalf("ref = %q", ref)
	}

	got := s.Snapshots()
	if len(got) != 1 || got[0].MonthKey != "2025-07" {
		t.Fatalf("snapshots = %+v", got)
	}
	if users := s.SnapshotUsers(); len(users) != 1 || users[0] != "u1" {
		t.Fatalf("users = %v", users)
	}
}
