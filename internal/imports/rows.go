package imports

import (
	"fmt"
	"strings"
)

// ParseRows reads a spreadsheet value matrix as returned by the Sheets API.
// The first row is the header; Category and Amount are mandatory, Date is
// optional. Row policy matches ParseCSV: skip, don't fail.
//
// Malformed cell values of unexpected dynamic types are handled by the
// recover guard in Reconciler.ApplyRows, keeping the ledger untouched.
func ParseRows(values [][]interface{}) (Result, error) {
	if len(values) == 0 {
		return Result{}, ErrInvalidFormat
	}
	header := toStrings(values[0])
	colCategory := headerIndex(header, "Category")
	colAmount := headerIndex(header, "Amount")
	colDate := headerIndex(header, "Date")
	if colCategory == -1 || colAmount == -1 {
		return Result{}, ErrInvalidFormat
	}

	var res Result
	for _, raw := range values[1:] {
		row := toStrings(raw)
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

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
