package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"phambili/internal/amqp"
	"phambili/internal/budget"
	"phambili/internal/core"
	"phambili/internal/sheets"
	"phambili/internal/storage"
)

// SyncWorker mirrors saved budget snapshots to an external sheet.
type SyncWorker struct {
	gateway  storage.Gateway
	appender sheets.SnapshotAppender
	policy   budget.Policy

	processed atomic.Int64
}

func NewSyncWorker(gateway storage.Gateway, appender sheets.SnapshotAppender, policy budget.Policy) *SyncWorker {
	return &SyncWorker{
		gateway:  gateway,
		appender: appender,
		policy:   policy,
	}
}

// HandleSnapshotMessage processes a single snapshot-saved message from AMQP.
// The message carries only identifiers; the saved state is read back from
// storage so the sheet always reflects what was actually persisted.
func (w *SyncWorker) HandleSnapshotMessage(ctx context.Context, msg *amqp.SnapshotSavedMessage) error {
	slog.InfoContext(ctx, "Processing snapshot message",
		"user_id", msg.UserID,
		"month_key", msg.MonthKey)

	l := budget.NewLedger(w.policy)
	if err := w.gateway.Load(ctx, msg.UserID, l); err != nil {
		if errors.Is(err, storage.ErrNoData) {
			// Saved state was cleared before the worker got to it.
			slog.WarnContext(ctx, "No saved budget for message, skipping",
				"user_id", msg.UserID, "month_key", msg.MonthKey)
			return nil
		}
		return fmt.Errorf("load budget from storage: %w", err)
	}

	snap := core.MonthlySnapshot{
		MonthKey:   msg.MonthKey,
		Income:     l.Income(),
		Expenses:   l.Expenses(),
		TotalSpent: l.TotalExpenses(),
	}

	ref, err := w.appender.AppendSnapshot(ctx, msg.UserID, snap)
	if err != nil {
		return fmt.Errorf("append snapshot to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced snapshot",
		"user_id", msg.UserID,
		"month_key", msg.MonthKey,
		"sheets_ref", ref,
		"income_cents", snap.Income.Cents,
		"spent_cents", snap.TotalSpent.Cents)

	w.processed.Add(1)
	return nil
}

// Processed reports how many snapshot messages have been synced since start.
func (w *SyncWorker) Processed() int64 {
	return w.processed.Load()
}
