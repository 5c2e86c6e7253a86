package imports

import (
	"fmt"
	"io"

	"phambili/internal/budget"
)

// Reconciler feeds parsed tabular data into a ledger. The parsed list
// replaces the ledger's entire expense list once confirmed; existing
// entries are discarded, never merged.
type Reconciler struct {
	ledger *budget.Ledger
}

func NewReconciler(l *budget.Ledger) *Reconciler {
	return &Reconciler{ledger: l}
}

// ApplyCSV parses delimited text and applies it. See Apply for the
// replacement and confirmation contract.
func (r *Reconciler) ApplyCSV(src io.Reader, confirm budget.Confirmer) (Result, error) {
	res, err := ParseCSV(src)
	if err != nil {
		return Result{}, err
	}
	return r.apply(res, confirm)
}

// ApplyRows parses a spreadsheet value matrix and applies it. Panics from
// unexpected cell content are converted to errors so a malformed workbook
// aborts cleanly with the ledger in its prior state.
func (r *Reconciler) ApplyRows(values [][]interface{}, confirm budget.Confirmer) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{}
			err = fmt.Errorf("process spreadsheet data: %v", rec)
		}
	}()
	parsed, err := ParseRows(values)
	if err != nil {
		return Result{}, err
	}
	return r.apply(parsed, confirm)
}

// apply runs the confirm step and, on approval, swaps the expense list.
// Declining discards the parsed candidate list without touching anything.
func (r *Reconciler) apply(res Result, confirm budget.Confirmer) (Result, error) {
	prompt := fmt.Sprintf("Import %d records?", res.Imported)
	if confirm != nil && !confirm.Confirm(prompt) {
		return res, nil
	}
	r.ledger.ReplaceExpenses(res.Expenses)
	res.Applied = true
	return res, nil
}
