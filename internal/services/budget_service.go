package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"phambili/internal/budget"
	"phambili/internal/core"
	"phambili/internal/exports"
	"phambili/internal/identity"
	"phambili/internal/imports"
	applog "phambili/internal/log"
	"phambili/internal/storage"
	"phambili/internal/tax"
)

// ErrNoUser is returned when no user is logged in.
var ErrNoUser = errors.New("no user logged in")

// SnapshotPublisher notifies downstream consumers that a snapshot was saved.
type SnapshotPublisher interface {
	PublishSnapshotSaved(ctx context.Context, userID, monthKey string) error
	Close() error
}

// BudgetService orchestrates per-user ledgers, persistence and downstream
// notifications. Ledger state lives in memory; Save, Load and Clear move it
// through the configured gateway.
type BudgetService struct {
	mu      sync.Mutex
	ledgers map[string]*budget.Ledger

	gateway   storage.Gateway
	identity  identity.Provider
	publisher SnapshotPublisher

	taxCfg tax.Config
	bands  budget.AdviceBands
	policy budget.Policy

	autosave bool
	now      func() time.Time
	logs     *applog.StructuredLogger
}

func NewBudgetService(
	gateway storage.Gateway,
	provider identity.Provider,
	publisher SnapshotPublisher,
	taxCfg tax.Config,
	bands budget.AdviceBands,
	policy budget.Policy,
) *BudgetService {
	return &BudgetService{
		ledgers:   make(map[string]*budget.Ledger),
		gateway:   gateway,
		identity:  provider,
		publisher: publisher,
		taxCfg:    taxCfg,
		bands:     bands,
		policy:    policy,
		now:       time.Now,
		logs:      applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBudget)),
	}
}

// EnableAutosave makes every successful mutation write through to the
// gateway. Autosave failures are logged, never surfaced; the explicit Save
// remains the operation that notifies downstream consumers.
func (s *BudgetService) EnableAutosave() {
	s.autosave = true
}

// autosaveNow persists the ledger after a mutation when autosave is on.
func (s *BudgetService) autosaveNow(ctx context.Context, userID string) {
	if !s.autosave {
		return
	}
	if err := s.gateway.Save(ctx, userID, s.ledgerFor(userID), s.now()); err != nil {
		slog.ErrorContext(ctx, "Autosave failed", "user_id", userID, "error", err)
	}
}

func (s *BudgetService) userID(ctx context.Context) (string, error) {
	id, ok := s.identity.CurrentUserID(ctx)
	if !ok {
		return "", ErrNoUser
	}
	return id, nil
}

// ledgerFor returns the in-memory ledger for a user, creating it on first use.
func (s *BudgetService) ledgerFor(userID string) *budget.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		l = budget.NewLedger(s.policy)
		s.ledgers[userID] = l
	}
	return l
}

func (s *BudgetService) SetIncome(ctx context.Context, cents int64) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	if err := s.ledgerFor(userID).SetIncome(cents); err != nil {
		return err
	}
	s.autosaveNow(ctx, userID)
	return nil
}

func (s *BudgetService) AddExpense(ctx context.Context, category string, amountCents int64, confirm budget.Confirmer) (budget.AddOutcome, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return budget.Declined, err
	}
	// Manual entries carry a calendar date, not a wall-clock instant, so
	// the stamp round-trips through the date-only storage format.
	t := s.now().UTC()
	when := core.NewDate(t.Year(), int(t.Month()), t.Day())
	outcome, err := s.ledgerFor(userID).AddExpense(category, amountCents, when, confirm)
	if err != nil {
		return outcome, err
	}
	if outcome != budget.Declined {
		s.logs.LogExpenseAdded(ctx, userID, category, amountCents)
		s.autosaveNow(ctx, userID)
	}
	return outcome, nil
}

func (s *BudgetService) Expenses(ctx context.Context) ([]core.Expense, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledgerFor(userID).Expenses(), nil
}

func (s *BudgetService) AddGoal(ctx context.Context, name string, targetCents int64) (core.SavingsGoal, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	goal, err := s.ledgerFor(userID).AddGoal(name, targetCents, s.now())
	if err != nil {
		return core.SavingsGoal{}, err
	}
	s.autosaveNow(ctx, userID)
	return goal, nil
}

func (s *BudgetService) ContributeToGoal(ctx context.Context, id, amountCents int64) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	if err := s.ledgerFor(userID).ContributeToGoal(id, amountCents); err != nil {
		return err
	}
	s.autosaveNow(ctx, userID)
	return nil
}

func (s *BudgetService) DeleteGoal(ctx context.Context, id int64, confirm budget.Confirmer) (bool, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return false, err
	}
	deleted, err := s.ledgerFor(userID).DeleteGoal(id, confirm)
	if err != nil {
		return false, err
	}
	if deleted {
		s.autosaveNow(ctx, userID)
	}
	return deleted, nil
}

func (s *BudgetService) Goals(ctx context.Context) ([]core.SavingsGoal, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledgerFor(userID).Goals(), nil
}

func (s *BudgetService) Totals(ctx context.Context) (core.Totals, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return budget.Totals(s.ledgerFor(userID), s.taxCfg), nil
}

func (s *BudgetService) Advise(ctx context.Context) (budget.Advice, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return budget.Advice{}, err
	}
	return budget.Advise(s.ledgerFor(userID), s.bands), nil
}

// Save persists the current ledger and notifies downstream consumers. A
// publish failure does not fail the save.
func (s *BudgetService) Save(ctx context.Context) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	l := s.ledgerFor(userID)
	now := s.now()
	if err := s.gateway.Save(ctx, userID, l, now); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}

	monthKey := core.MonthKey(now)
	if err := s.publishSnapshotSaved(ctx, userID, monthKey); err != nil {
		slog.ErrorContext(ctx, "Failed to publish snapshot saved message",
			"user_id", userID, "month_key", monthKey, "error", err)
	}

	slog.InfoContext(ctx, "Budget saved", "user_id", userID, "month_key", monthKey)
	return nil
}

// Load replaces the in-memory ledger with the persisted state. A missing
// record leaves the ledger untouched and reports storage.ErrNoData.
func (s *BudgetService) Load(ctx context.Context) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	return s.gateway.Load(ctx, userID, s.ledgerFor(userID))
}

// Clear wipes the in-memory ledger and the persisted record.
func (s *BudgetService) Clear(ctx context.Context) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	s.ledgerFor(userID).Clear()
	if err := s.gateway.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget cleared", "user_id", userID)
	return nil
}

// ImportCSV parses a CSV stream and, on confirmation, replaces the ledger's
// expense list with the parsed rows.
func (s *BudgetService) ImportCSV(ctx context.Context, src io.Reader, confirm budget.Confirmer) (imports.Result, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return imports.Result{}, err
	}
	res, err := imports.NewReconciler(s.ledgerFor(userID)).ApplyCSV(src, confirm)
	if err != nil {
		return res, err
	}
	if res.Applied {
		s.logs.LogImportApplied(ctx, userID, res.Imported, res.Skipped)
		s.autosaveNow(ctx, userID)
	}
	return res, nil
}

// ImportRows applies spreadsheet rows with the same replace semantics as
// ImportCSV.
func (s *BudgetService) ImportRows(ctx context.Context, rows [][]interface{}, confirm budget.Confirmer) (imports.Result, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return imports.Result{}, err
	}
	res, err := imports.NewReconciler(s.ledgerFor(userID)).ApplyRows(rows, confirm)
	if err != nil {
		return res, err
	}
	if res.Applied {
		s.logs.LogImportApplied(ctx, userID, res.Imported, res.Skipped)
		s.autosaveNow(ctx, userID)
	}
	return res, nil
}

// ExportCSV writes the current expense list to w.
func (s *BudgetService) ExportCSV(ctx context.Context, w io.Writer, withDate bool) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	return exports.WriteCSV(w, s.ledgerFor(userID).Expenses(), withDate)
}

func (s *BudgetService) publishSnapshotSaved(ctx context.Context, userID, monthKey string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Snapshot publisher not available, skipping message")
		return nil
	}
	return s.publisher.PublishSnapshotSaved(ctx, userID, monthKey)
}

// Close closes the downstream publisher connection.
func (s *BudgetService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close budget service: %w", err)
		}
	}
	return nil
}
