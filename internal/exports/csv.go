// Package exports renders ledger expense lists as delimited text for
// download, and serves the static import template.
package exports

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"phambili/internal/core"
)

// Template matches the import header contract and is offered to users as a
// starting point.
const (
	Template         = "Category,Amount\nRent,5000\nGroceries,2000\nTransport,800\nUtilities,1200"
	TemplateFilename = "Budget_Template.csv"
)

// WriteCSV writes the expense list in ledger order. withDate selects the
// three-column layout. Category text is written as-is: delimiter characters
// inside a category are not escaped, a known limitation of the format.
func WriteCSV(w io.Writer, expenses []core.Expense, withDate bool) error {
	header := "Category,Amount\n"
	if withDate {
		header = "Date,Category,Amount\n"
	}
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		var line string
		if withDate {
			line = e.Date.Format("2006-01-02") + "," + e.Category + "," + FormatAmount(e.Amount) + "\n"
		} else {
			line = e.Category + "," + FormatAmount(e.Amount) + "\n"
		}
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

// FormatAmount renders cents as a plain decimal: whole rand without a
// fraction, otherwise two decimal places.
func FormatAmount(m core.Money) string {
	if m.Cents%100 == 0 {
		return strconv.FormatInt(m.Cents/100, 10)
	}
	return strconv.FormatFloat(float64(m.Cents)/100, 'f', 2, 64)
}

// Filename embeds the current date in the download name.
func Filename(now time.Time) string {
	return fmt.Sprintf("budget_export_%s.csv", now.Format("2006-01-02"))
}
