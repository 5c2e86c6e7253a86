package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"phambili/internal/budget"
	"phambili/internal/core"
)

// Storage keys. The names match the browser-profile layout this data
// migrates from, so a dump of either store reads the same way.
const (
	flatKeyPrefix  = "budgetData_"
	usersKey       = "budgetUsers"
	goalsKeyPrefix = "budgetGoals_"
	CurrentUserKey = "currentUser"
)

// Gateway persists and restores ledger state for one user. Load returns
// ErrNoData when nothing has been saved, which callers treat as normal.
type Gateway interface {
	Save(ctx context.Context, userID string, l *budget.Ledger, now time.Time) error
	Load(ctx context.Context, userID string, l *budget.Ledger) error
	Clear(ctx context.Context, userID string) error
}

type expenseRecord struct {
	Date        string `json:"date,omitempty"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

type goalRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TargetCents int64  `json:"target_cents"`
	SavedCents  int64  `json:"saved_cents"`
}

type ledgerRecord struct {
	IncomeCents int64           `json:"income_cents"`
	Expenses    []expenseRecord `json:"expenses"`
	Goals       []goalRecord    `json:"savings_goals"`
}

type snapshotRecord struct {
	MonthKey    string          `json:"date"`
	IncomeCents int64           `json:"income_cents"`
	Expenses    []expenseRecord `json:"expenses"`
	TotalCents  int64           `json:"total_cents"`
}

// UserRecord is one entry of the shared user list. The identity package
// owns registration and login; the history gateway appends budgets here.
type UserRecord struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	EncodedPassword string           `json:"password"`
	Budgets         []snapshotRecord `json:"budgets"`
}

const dateLayout = "2006-01-02"

func toExpenseRecords(expenses []core.Expense) []expenseRecord {
	out := make([]expenseRecord, 0, len(expenses))
	for _, e := range expenses {
		rec := expenseRecord{Category: e.Category, AmountCents: e.Amount.Cents}
		if !e.Date.IsEmpty() {
			rec.Date = e.Date.Format(dateLayout)
		}
		out = append(out, rec)
	}
	return out
}

func fromExpenseRecords(records []expenseRecord) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, r := range records {
		e := core.Expense{Category: r.Category, Amount: core.Money{Cents: r.AmountCents}}
		if r.Date != "" {
			if t, err := time.Parse(dateLayout, r.Date); err == nil {
				e.Date = core.Date{Time: t}
			}
		}
		out = append(out, e)
	}
	return out
}

func toGoalRecords(goals []core.SavingsGoal) []goalRecord {
	out := make([]goalRecord, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalRecord{
			ID:          g.ID,
			Name:        g.Name,
			TargetCents: g.Target.Cents,
			SavedCents:  g.Saved.Cents,
		})
	}
	return out
}

func fromGoalRecords(records []goalRecord) []core.SavingsGoal {
	out := make([]core.SavingsGoal, 0, len(records))
	for _, r := range records {
		out = append(out, core.SavingsGoal{
			ID:     r.ID,
			Name:   r.Name,
			Target: core.Money{Cents: r.TargetCents},
			Saved:  core.Money{Cents: r.SavedCents},
		})
	}
	return out
}

// FlatGateway stores one ledger snapshot per user under a derived key.
// Every save overwrites the previous snapshot; Clear removes it.
type FlatGateway struct {
	kv KV
}

func NewFlatGateway(kv KV) *FlatGateway {
	return &FlatGateway{kv: kv}
}

func flatKey(userID string) string { return flatKeyPrefix + userID }

func goalsKey(userID string) string { return goalsKeyPrefix + userID }

func (g *FlatGateway) Save(ctx context.Context, userID string, l *budget.Ledger, _ time.Time) error {
	rec := ledgerRecord{
		IncomeCents: l.Income().Cents,
		Expenses:    toExpenseRecords(l.Expenses()),
		Goals:       toGoalRecords(l.Goals()),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := g.kv.Set(ctx, flatKey(userID), string(raw)); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	slog.DebugContext(ctx, "Ledger saved", "user_id", userID, "expenses", len(rec.Expenses))
	return nil
}

func (g *FlatGateway) Load(ctx context.Context, userID string, l *budget.Ledger) error {
	raw, err := g.kv.Get(ctx, flatKey(userID))
	if err != nil {
		return err
	}
	var rec ledgerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}
	l.Restore(rec.IncomeCents, fromExpenseRecords(rec.Expenses), fromGoalRecords(rec.Goals))
	return nil
}

func (g *FlatGateway) Clear(ctx context.Context, userID string) error {
	return g.kv.Remove(ctx, flatKey(userID))
}

// HistoryGateway appends a monthly snapshot to the user's record on every
// save and loads the most recently appended one. The history is never
// pruned. Goals live outside the snapshot history under a per-user key;
// they carry across months rather than belonging to any one snapshot.
type HistoryGateway struct {
	kv KV
}

func NewHistoryGateway(kv KV) *HistoryGateway {
	return &HistoryGateway{kv: kv}
}

// LoadUserRecords reads the shared user list. A missing key yields an
// empty list, not an error.
func LoadUserRecords(ctx context.Context, kv KV) ([]UserRecord, error) {
	raw, err := kv.Get(ctx, usersKey)
	if err == ErrNoData {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var users []UserRecord
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode user records: %w", err)
	}
	return users, nil
}

// SaveUserRecords writes the shared user list back whole; last writer wins.
func SaveUserRecords(ctx context.Context, kv KV, users []UserRecord) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("marshal user records: %w", err)
	}
	return kv.Set(ctx, usersKey, string(raw))
}

func (g *HistoryGateway) Save(ctx context.Context, userID string, l *budget.Ledger, now time.Time) error {
	users, err := LoadUserRecords(ctx, g.kv)
	if err != nil {
		return err
	}
	snap := l.Snapshot(now)
	rec := snapshotRecord{
		MonthKey:    snap.MonthKey,
		IncomeCents: snap.Income.Cents,
		Expenses:    toExpenseRecords(snap.Expenses),
		TotalCents:  snap.TotalSpent.Cents,
	}

	idx := -1
	for i := range users {
		if users[i].ID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		users = append(users, UserRecord{ID: userID})
		idx = len(users) - 1
	}
	users[idx].Budgets = append(users[idx].Budgets, rec)

	if err := SaveUserRecords(ctx, g.kv, users); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := g.saveGoals(ctx, userID, l.Goals()); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Snapshot appended",
		"user_id", userID, "month", rec.MonthKey, "history_len", len(users[idx].Budgets))
	return nil
}

func (g *HistoryGateway) saveGoals(ctx context.Context, userID string, goals []core.SavingsGoal) error {
	raw, err := json.Marshal(toGoalRecords(goals))
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}
	return g.kv.Set(ctx, goalsKey(userID), string(raw))
}

// Load restores the tail snapshot by insertion order, not by comparing
// month keys; out-of-order saves are not reconciled.
func (g *HistoryGateway) Load(ctx context.Context, userID string, l *budget.Ledger) error {
	users, err := LoadUserRecords(ctx, g.kv)
	if err != nil {
		return err
	}
	var rec *snapshotRecord
	for i := range users {
		if users[i].ID == userID {
			if len(users[i].Budgets) == 0 {
				return ErrNoData
			}
			rec = &users[i].Budgets[len(users[i].Budgets)-1]
			break
		}
	}
	if rec == nil {
		return ErrNoData
	}

	goals := l.Goals()
	if raw, err := g.kv.Get(ctx, goalsKey(userID)); err == nil {
		var records []goalRecord
		if err := json.Unmarshal([]byte(raw), &records); err == nil {
			goals = fromGoalRecords(records)
		}
	}
	l.Restore(rec.IncomeCents, fromExpenseRecords(rec.Expenses), goals)
	return nil
}

// Clear removes only the user's goals; the snapshot history is deliberately
// left intact, unlike the flat variant.
func (g *HistoryGateway) Clear(ctx context.Context, userID string) error {
	return g.kv.Remove(ctx, goalsKey(userID))
}
