package budget

import (
	"strings"

	"phambili/internal/core"
	"phambili/internal/tax"
)

// Totals derives the aggregate view of a ledger on demand: expense sum,
// balance (may be negative), tax estimate for the active configuration, and
// per-category sums.
func Totals(l *Ledger, taxCfg tax.Config) core.Totals {
	income := l.Income()
	spent := l.TotalExpenses()
	return core.Totals{
		Income:        income,
		TotalExpenses: spent,
		Balance:       core.Money{Cents: income.Cents - spent.Cents},
		Tax:           core.Money{Cents: taxCfg.Estimate(income.Cents)},
		ByCategory:    PerCategory(l.Expenses()),
	}
}

// PerCategory groups expense amounts by category, case-insensitively, in
// first-seen order. The first-seen casing is the one displayed.
func PerCategory(expenses []core.Expense) []core.CategoryAmount {
	var order []string
	sums := map[string]*core.CategoryAmount{}
	for _, e := range expenses {
		key := strings.ToLower(core.NormalizeCategory(e.Category))
		if agg, ok := sums[key]; ok {
			agg.Amount.Cents += e.Amount.Cents
			continue
		}
		order = append(order, key)
		sums[key] = &core.CategoryAmount{
			Name:   core.NormalizeCategory(e.Category),
			Amount: e.Amount,
		}
	}
	out := make([]core.CategoryAmount, 0, len(order))
	for _, key := range order {
		out = append(out, *sums[key])
	}
	return out
}

// AdviceTier classifies the savings rate into one of three bands.
type AdviceTier int

const (
	AdviceWarning AdviceTier = iota
	AdviceNeutral
	AdvicePositive
)

func (t AdviceTier) String() string {
	switch t {
	case AdviceWarning:
		return "warning"
	case AdvicePositive:
		return "positive"
	default:
		return "neutral"
	}
}

// AdviceBands holds the tier thresholds on savings/income. Below Low is a
// warning, above High is positive reinforcement, in between is neutral.
type AdviceBands struct {
	Low  float64
	High float64
}

// DefaultBands is the 10%/20% banding of the per-user-history deployment.
func DefaultBands() AdviceBands { return AdviceBands{Low: 0.10, High: 0.20} }

// NegativeBalanceBands reproduces the flat-session deployment, which only
// warned once the balance went negative.
func NegativeBalanceBands() AdviceBands { return AdviceBands{Low: 0, High: 0.20} }

// Advice is the tiered recommendation derived from a ledger.
type Advice struct {
	Tier         AdviceTier
	Message      string
	Savings      core.Money
	SavingsRatio float64
}

// Advise computes the savings rate and classifies it. A zero income with
// any spending counts as overspending.
func Advise(l *Ledger, bands AdviceBands) Advice {
	income := l.Income().Cents
	savings := income - l.TotalExpenses().Cents

	var ratio float64
	if income > 0 {
		ratio = float64(savings) / float64(income)
	} else if savings < 0 {
		ratio = -1
	}

	a := Advice{Savings: core.Money{Cents: savings}, SavingsRatio: ratio}
	switch {
	case ratio < bands.Low:
		a.Tier = AdviceWarning
		a.Message = "Your savings are low. Consider reducing expenses in non-essential categories."
	case ratio > bands.High:
		a.Tier = AdvicePositive
		a.Message = "Great job! You have a good savings rate."
	default:
		a.Tier = AdviceNeutral
		a.Message = "Your budget looks balanced. Consider increasing savings if possible."
	}
	return a
}
