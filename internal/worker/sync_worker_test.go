package worker

import (
	"context"
	"testing"
	"time"

	"phambili/internal/amqp"
	"phambili/internal/budget"
	"phambili/internal/core"
	"phambili/internal/sheets/memory"
	"phambili/internal/storage"
)

func TestHandleSnapshotMessage(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	gateway := storage.NewFlatGateway(kv)

	l := budget.NewLedger(budget.DefaultPolicy())
	if err := l.SetIncome(1000000); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddExpense("Rent", 500000, core.Date{Time: time.Now()}, budget.AlwaysConfirm); err != nil {
		t.Fatal(err)
	}
	if err := gateway.Save(ctx, "u1", l, time.Now()); err != nil {
		t.Fatal(err)
	}

	store := memory.New()
	w := NewSyncWorker(gateway, store, budget.DefaultPolicy())

	msg := amqp.NewSnapshotSavedMessage("u1", "2025-07")
	if err := w.HandleSnapshotMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	snaps := store.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if snaps[0].MonthKey != "2025-07" {
		t.Fatalf("month key = %q", snaps[0].MonthKey)
	}
	if snaps[0].Income.Cents != 1000000 || snaps[0].TotalSpent.Cents != 500000 {
		t.Fatalf("snapshot = %+v", snaps[0])
	}
	if users := store.SnapshotUsers(); users[0] != "u1" {
		t.Fatalf("users = %v", users)
	}
}

func TestHandleSnapshotMessageMissingData(t *testing.T) {
	gateway := storage.NewFlatGateway(storage.NewMemory())
	store := memory.New()
	w := NewSyncWorker(gateway, store, budget.DefaultPolicy())

	msg := amqp.NewSnapshotSavedMessage("ghost", "2025-07")
	if err := w.HandleSnapshotMessage(context.Background(), msg); err != nil {
		t.Fatalf("missing data should be skipped, got error: %v", err)
	}
	if len(store.Snapshots()) != 0 {
		t.Fatal("nothing should have been appended")
	}
}
