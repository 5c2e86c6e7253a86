// Package budget implements the in-memory budget ledger: income, categorized
// expenses, and savings goals, with the validation rules that guard every
// mutation. No failure path leaves a partial mutation behind.
package budget

import (
	"fmt"
	"time"

	"phambili/internal/core"
)

// Confirmer is the external collaborator asked before destructive or
// merging operations. Declining is a normal outcome, not an error.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves every prompt. Used where the caller has already
// collected confirmation out of band.
var AlwaysConfirm = ConfirmerFunc(func(string) bool { return true })

// Policy captures the rules the two deployments disagreed on.
// AllowExpenseExceedingIncome relaxes the stricter variant's cap of expense
// amounts at the declared income.
type Policy struct {
	AllowExpenseExceedingIncome bool
	MinAmountCents              int64
}

// DefaultPolicy enforces the stricter variant: amounts of at least R1 and
// no single expense above the declared income.
func DefaultPolicy() Policy {
	return Policy{AllowExpenseExceedingIncome: false, MinAmountCents: 100}
}

// AddOutcome describes what AddExpense did with a valid submission.
type AddOutcome int

const (
	// Appended means a new expense record was created.
	Appended AddOutcome = iota
	// Merged means the amount was accumulated into an existing record with
	// a case-insensitively matching category.
	Merged
	// Declined means a merge was offered and the confirmer refused;
	// the ledger is unchanged.
	Declined
)

// Ledger owns the live session state. Exactly one ledger is live per
// session; it has no ambient globals and is not safe for concurrent use.
type Ledger struct {
	policy      Policy
	incomeCents int64
	expenses    []core.Expense
	goals       []core.SavingsGoal
	lastGoalID  int64
}

func NewLedger(policy Policy) *Ledger {
	return &Ledger{policy: policy}
}

func (l *Ledger) Policy() Policy { return l.policy }

func (l *Ledger) Income() core.Money { return core.Money{Cents: l.incomeCents} }

// Expenses returns the expense list in insertion order. The slice is a copy;
// records inside a finalized snapshot are never mutated through it.
func (l *Ledger) Expenses() []core.Expense {
	return append([]core.Expense(nil), l.expenses...)
}

func (l *Ledger) Goals() []core.SavingsGoal {
	return append([]core.SavingsGoal(nil), l.goals...)
}

// TotalExpenses sums all expense amounts.
func (l *Ledger) TotalExpenses() core.Money {
	var sum int64
	for _, e := range l.expenses {
		sum += e.Amount.Cents
	}
	return core.Money{Cents: sum}
}

// SetIncome replaces the declared monthly income after validation.
func (l *Ledger) SetIncome(cents int64) error {
	if err := ValidateAmount(cents, l.policy.MinAmountCents, 0, "Monthly income"); err != nil {
		return err
	}
	l.incomeCents = cents
	return nil
}

// AddExpense validates and records an expense. When a record with a
// case-insensitively matching category exists the confirmer is asked whether
// to accumulate into it; declining leaves the ledger untouched.
func (l *Ledger) AddExpense(category string, amountCents int64, when core.Date, confirm Confirmer) (AddOutcome, error) {
	category = core.NormalizeCategory(category)
	if category == "" {
		return 0, core.ErrEmptyCategory
	}
	maxCents := int64(0)
	if !l.policy.AllowExpenseExceedingIncome {
		maxCents = l.incomeCents
	}
	if err := ValidateAmount(amountCents, l.policy.MinAmountCents, maxCents, "Expense amount"); err != nil {
		return 0, err
	}

	for i := range l.expenses {
		if core.SameCategory(l.expenses[i].Category, category) {
			prompt := fmt.Sprintf("%s already exists. Add to existing amount?", l.expenses[i].Category)
			if confirm == nil || !confirm.Confirm(prompt) {
				return Declined, nil
			}
			l.expenses[i].Amount.Cents += amountCents
			return Merged, nil
		}
	}

	if when.IsEmpty() {
		when = core.Today()
	}
	l.expenses = append(l.expenses, core.Expense{
		Date:     when,
		Category: category,
		Amount:   core.Money{Cents: amountCents},
	})
	return Appended, nil
}

// AddGoal appends a new savings goal with saved = 0 and a unique
// creation-time-derived id. IDs are strictly monotonic even when goals are
// created within the same millisecond.
func (l *Ledger) AddGoal(name string, targetCents int64, now time.Time) (core.SavingsGoal, error) {
	goal := core.SavingsGoal{
		Name:   core.NormalizeCategory(name),
		Target: core.Money{Cents: targetCents},
	}
	if err := goal.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	id := now.UnixMilli()
	if id <= l.lastGoalID {
		id = l.lastGoalID + 1
	}
	l.lastGoalID = id
	goal.ID = id
	l.goals = append(l.goals, goal)
	return goal, nil
}

// ContributeToGoal increments a goal's saved amount. The amount must be
// strictly positive; an unknown id is a normal negative result.
func (l *Ledger) ContributeToGoal(id int64, amountCents int64) error {
	if amountCents <= 0 {
		return core.ErrInvalidAmount
	}
	for i := range l.goals {
		if l.goals[i].ID == id {
			l.goals[i].Saved.Cents += amountCents
			return nil
		}
	}
	return core.ErrGoalNotFound
}

// DeleteGoal removes the goal after confirmation. Returns false with no
// error when the confirmer declines; ErrGoalNotFound when the id is absent.
func (l *Ledger) DeleteGoal(id int64, confirm Confirmer) (bool, error) {
	idx := -1
	for i := range l.goals {
		if l.goals[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, core.ErrGoalNotFound
	}
	if confirm == nil || !confirm.Confirm("Are you sure you want to delete this goal?") {
		return false, nil
	}
	l.goals = append(l.goals[:idx], l.goals[idx+1:]...)
	return true, nil
}

// ReplaceExpenses swaps the entire expense list, the import reconciler's
// total-replacement semantics. Existing entries are discarded, not merged.
func (l *Ledger) ReplaceExpenses(list []core.Expense) {
	l.expenses = append([]core.Expense(nil), list...)
}

// Clear resets the live session: income to zero, expenses and goals to
// empty. Persisted history is not touched here; that asymmetry between the
// two persistence variants lives in the gateways.
func (l *Ledger) Clear() {
	l.incomeCents = 0
	l.expenses = nil
	l.goals = nil
}

// Restore overwrites the session state from persisted data, bypassing
// per-field validation the way a load always has.
func (l *Ledger) Restore(incomeCents int64, expenses []core.Expense, goals []core.SavingsGoal) {
	l.incomeCents = incomeCents
	l.expenses = append([]core.Expense(nil), expenses...)
	l.goals = append([]core.SavingsGoal(nil), goals...)
	for _, g := range goals {
		if g.ID > l.lastGoalID {
			l.lastGoalID = g.ID
		}
	}
}

// Snapshot captures the ledger as a monthly snapshot tagged with now's
// "YYYY-MM" key.
func (l *Ledger) Snapshot(now time.Time) core.MonthlySnapshot {
	return core.MonthlySnapshot{
		MonthKey:   core.MonthKey(now),
		Income:     l.Income(),
		Expenses:   l.Expenses(),
		TotalSpent: l.TotalExpenses(),
	}
}
