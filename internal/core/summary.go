package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Totals is the derived view of a ledger: expense sum, remaining balance
// (which may be negative), the tax estimate for the declared income, and
// per-category sums in first-seen order.
type Totals struct {
	Income        Money
	TotalExpenses Money
	Balance       Money
	Tax           Money
	ByCategory    []CategoryAmount
}
