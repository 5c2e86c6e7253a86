// Package tax implements progressive marginal-bracket income tax estimation.
//
// Two bracket tables ship with the engine because the two deployments of the
// budget tool disagreed on whether the declared income figure is taxed
// directly or annualized first. Both are preserved as named configurations.
package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Bracket is one marginal band. MaxCents == 0 means unbounded (the last
// bracket). Rates are decimals to keep the marginal math exact.
type Bracket struct {
	MinCents int64
	MaxCents int64
	Rate     decimal.Decimal
}

// Table is an ordered sequence of ascending, non-overlapping brackets.
type Table struct {
	Name     string
	Brackets []Bracket
}

// Config selects a table and whether the declared income is annualized
// (multiplied by 12) before the table is applied, with the result divided
// back down to a monthly figure.
type Config struct {
	Table     Table
	Annualize bool
}

var (
	ErrEmptyTable    = errors.New("tax table has no brackets")
	ErrBracketOrder  = errors.New("tax brackets must be ascending and non-overlapping")
	ErrNegativeRate  = errors.New("tax bracket rate must not be negative")
	ErrBoundedTail   = errors.New("last tax bracket must be unbounded")
	ErrUnboundedBody = errors.New("only the last tax bracket may be unbounded")
)

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MonthlyDirect applies the 2020 bracket thresholds directly to the declared
// income figure, the way the flat-session deployment did.
func MonthlyDirect() Config {
	return Config{Table: Table{
		Name: "monthly-direct",
		Brackets: []Bracket{
			{MinCents: 0, MaxCents: 20590000, Rate: rate("0.18")},
			{MinCents: 20590000, MaxCents: 32160000, Rate: rate("0.26")},
			{MinCents: 32160000, MaxCents: 44510000, Rate: rate("0.31")},
			{MinCents: 44510000, MaxCents: 58420000, Rate: rate("0.36")},
			{MinCents: 58420000, MaxCents: 74480000, Rate: rate("0.39")},
			{MinCents: 74480000, MaxCents: 157730000, Rate: rate("0.41")},
			{MinCents: 157730000, MaxCents: 0, Rate: rate("0.45")},
		},
	}}
}

// AnnualizedMonthly multiplies the declared monthly income by 12, applies the
// 2024 annual thresholds, and divides the tax back down to a monthly figure.
// The one-rand gaps between brackets reproduce the deployed table verbatim.
func AnnualizedMonthly() Config {
	return Config{Annualize: true, Table: Table{
		Name: "annualized-monthly",
		Brackets: []Bracket{
			{MinCents: 0, MaxCents: 23710000, Rate: rate("0.18")},
			{MinCents: 23710100, MaxCents: 37050000, Rate: rate("0.26")},
			{MinCents: 37050100, MaxCents: 51280000, Rate: rate("0.31")},
			{MinCents: 51280100, MaxCents: 67300000, Rate: rate("0.36")},
			{MinCents: 67300100, MaxCents: 85790000, Rate: rate("0.39")},
			{MinCents: 85790100, MaxCents: 181700000, Rate: rate("0.41")},
			{MinCents: 181700100, MaxCents: 0, Rate: rate("0.45")},
		},
	}}
}

// ByName resolves a named configuration. Recognized names are "monthly" and
// "annualized".
func ByName(name string) (Config, error) {
	switch name {
	case "monthly":
		return MonthlyDirect(), nil
	case "annualized":
		return AnnualizedMonthly(), nil
	default:
		return Config{}, fmt.Errorf("unknown tax table %q", name)
	}
}

// Validate checks bracket ordering. Brackets must ascend without overlap and
// only the final bracket may be unbounded.
func (t Table) Validate() error {
	if len(t.Brackets) == 0 {
		return ErrEmptyTable
	}
	for i, b := range t.Brackets {
		if b.Rate.IsNegative() {
			return ErrNegativeRate
		}
		last := i == len(t.Brackets)-1
		if last {
			if b.MaxCents != 0 {
				return ErrBoundedTail
			}
			continue
		}
		if b.MaxCents == 0 {
			return ErrUnboundedBody
		}
		if b.MaxCents <= b.MinCents {
			return ErrBracketOrder
		}
		if t.Brackets[i+1].MinCents < b.MaxCents {
			return ErrBracketOrder
		}
	}
	return nil
}

// Calculate accrues marginal tax over every bracket whose lower bound lies
// below the income: rate × (min(income, max) − min), summed. Result is
// rounded half away from zero to whole cents.
func (t Table) Calculate(incomeCents int64) int64 {
	if incomeCents <= 0 {
		return 0
	}
	total := decimal.Zero
	for _, b := range t.Brackets {
		if incomeCents <= b.MinCents {
			continue
		}
		upper := incomeCents
		if b.MaxCents != 0 && upper > b.MaxCents {
			upper = b.MaxCents
		}
		taxable := decimal.NewFromInt(upper - b.MinCents)
		total = total.Add(b.Rate.Mul(taxable))
	}
	return total.Round(0).IntPart()
}

// Estimate returns the monthly tax estimate for a declared monthly income in
// cents, applying annualization when the configuration calls for it.
func (c Config) Estimate(monthlyIncomeCents int64) int64 {
	if monthlyIncomeCents <= 0 {
		return 0
	}
	if !c.Annualize {
		return c.Table.Calculate(monthlyIncomeCents)
	}
	annual := c.Table.Calculate(monthlyIncomeCents * 12)
	monthly := decimal.NewFromInt(annual).Div(decimal.NewFromInt(12))
	return monthly.Round(0).IntPart()
}
