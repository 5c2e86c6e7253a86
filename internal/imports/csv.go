// Package imports turns external tabular data into candidate expense lists.
//
// Two shapes are accepted: delimited text with a header row, and
// spreadsheet-style value matrices. Parsing is all-or-nothing at the format
// level and skip-on-error at the row level; the ledger is only touched once
// a fully parsed list has been confirmed.
package imports

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	date "github.com/joyt/godate"

	"phambili/internal/core"
)

// ErrInvalidFormat marks input whose header lacks the mandatory Category
// and Amount fields.
var ErrInvalidFormat = errors.New("invalid import format")

// Result is a parsed candidate expense list with row accounting. Applied
// reports whether a reconciler committed the list to the ledger.
type Result struct {
	Expenses []core.Expense
	Imported int
	Skipped  int
	Applied  bool
}

// ParseCSV reads delimited text. The header row must name Category and
// Amount; a Date column is optional and parsed leniently. Rows with an
// empty category or an unparseable amount are skipped, not fatal.
func ParseCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, errors.Join(ErrInvalidFormat, err)
	}
	if len(rows) == 0 {
		return Result{}, ErrInvalidFormat
	}

	header := rows[0]
	colCategory := headerIndex(header, "Category")
	colAmount := headerIndex(header, "Amount")
	colDate := headerIndex(header, "Date")
	if colCategory == -1 || colAmount == -1 {
		return Result{}, ErrInvalidFormat
	}

	var res Result
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		exp, ok := buildExpense(
			cell(row, colCategory),
			cell(row, colAmount),
			cellOrEmpty(row, colDate),
		)
		if !ok {
			res.Skipped++
			continue
		}
		res.Expenses = append(res.Expenses, exp)
		res.Imported++
	}
	return res, nil
}

// buildExpense validates one row. A row qualifies when the category is
// non-empty and the amount parses as a positive number.
func buildExpense(category, amount, dateStr string) (core.Expense, bool) {
	category = core.NormalizeCategory(category)
	if category == "" {
		return core.Expense{}, false
	}
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Expense{}, false
	}
	exp := core.Expense{Category: category, Amount: core.Money{Cents: cents}}
	if dateStr != "" {
		if t, err := date.Parse(dateStr); err == nil {
			exp.Date = core.Date{Time: t}
		}
	}
	if exp.Date.IsEmpty() {
		exp.Date = core.Today()
	}
	return exp, true
}

// headerIndex matches header names exactly after trimming. The column
// contract is case-sensitive.
func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellOrEmpty(row []string, idx int) string {
	if idx == -1 {
		return ""
	}
	return cell(row, idx)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
