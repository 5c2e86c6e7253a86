package imports

import (
	"errors"
	"strings"
	"testing"

	"phambili/internal/budget"
	"phambili/internal/core"
)

func TestParseCSVSkipsBadRows(t *testing.T) {
	csv := "Category,Amount\nRent,5000\n,abc\nFood,200"
	res, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 || res.Skipped != 1 {
		t.Fatalf("imported=%d skipped=%d, want 2/1", res.Imported, res.Skipped)
	}
	want := []struct {
		cat   string
		cents int64
	}{{"Rent", 500000}, {"Food", 20000}}
	for i, w := range want {
		if res.Expenses[i].Category != w.cat || res.Expenses[i].Amount.Cents != w.cents {
			t.Fatalf("row %d = %+v, want %s/%d", i, res.Expenses[i], w.cat, w.cents)
		}
	}
}

func TestParseCSVWithDateColumn(t *testing.T) {
	csv := "Date,Category,Amount\n2023-01-01,Rent,5000\n2023-01-02,Groceries,1200"
	res, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 {
		t.Fatalf("imported = %d", res.Imported)
	}
	d := res.Expenses[0].Date
	if d.Year() != 2023 || int(d.Month()) != 1 || d.Day() != 1 {
		t.Fatalf("date = %v", d)
	}
}

func TestParseCSVInvalidHeader(t *testing.T) {
	cases := []string{
		"",
		"Name,Value\nRent,5000",
		"Category\nRent",
		"category,amount\nRent,5000", // header names are case-sensitive
	}
	for _, in := range cases {
		if _, err := ParseCSV(strings.NewReader(in)); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("input %q: err = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestParseCSVBlankLines(t *testing.T) {
	csv := "Category,Amount\nRent,5000\n\n\nFood,200\n"
	res, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 || res.Skipped != 0 {
		t.Fatalf("imported=%d skipped=%d", res.Imported, res.Skipped)
	}
}

func TestParseRows(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Category", "Amount"},
		{"2023-01-01", "Rent", 5000},
		{"", "", "nope"},
		{"2023-01-05", "Transport", "800.50"},
	}
	res, err := ParseRows(values)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 || res.Skipped != 1 {
		t.Fatalf("imported=%d skipped=%d", res.Imported, res.Skipped)
	}
	if res.Expenses[1].Amount.Cents != 80050 {
		t.Fatalf("amount = %d", res.Expenses[1].Amount.Cents)
	}
}

func TestParseRowsMissingHeaders(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Description", "Total"},
		{"2023-01-01", "Rent", 5000},
	}
	if _, err := ParseRows(values); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestReconcilerReplacesNotMerges(t *testing.T) {
	l := budget.NewLedger(budget.DefaultPolicy())
	if err := l.SetIncome(2000000); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddExpense("Old entry", 10000, core.Date{}, budget.AlwaysConfirm); err != nil {
		t.Fatal(err)
	}

	rec := NewReconciler(l)
	res, err := rec.ApplyCSV(strings.NewReader("Category,Amount\nRent,5000\nFood,200"), budget.AlwaysConfirm)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied {
		t.Fatal("import not applied")
	}

	got := l.Expenses()
	if len(got) != 2 {
		t.Fatalf("expenses = %d entries, want full replacement", len(got))
	}
	if got[0].Category != "Rent" || got[1].Category != "Food" {
		t.Fatalf("expenses = %+v", got)
	}
	if l.TotalExpenses().Cents != 520000 {
		t.Fatalf("total = %d", l.TotalExpenses().Cents)
	}
}

func TestReconcilerDeclinedIsNoOp(t *testing.T) {
	l := budget.NewLedger(budget.DefaultPolicy())
	if err := l.SetIncome(2000000); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddExpense("Keep me", 10000, core.Date{}, budget.AlwaysConfirm); err != nil {
		t.Fatal(err)
	}

	decline := budget.ConfirmerFunc(func(string) bool { return false })
	rec := NewReconciler(l)
	res, err := rec.ApplyCSV(strings.NewReader("Category,Amount\nRent,5000"), decline)
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied {
		t.Fatal("declined import was applied")
	}
	if got := l.Expenses(); len(got) != 1 || got[0].Category != "Keep me" {
		t.Fatalf("ledger mutated: %+v", got)
	}
}

func TestReconcilerBadFormatLeavesLedgerUntouched(t *testing.T) {
	l := budget.NewLedger(budget.DefaultPolicy())
	if err := l.SetIncome(2000000); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddExpense("Keep me", 10000, core.Date{}, budget.AlwaysConfirm); err != nil {
		t.Fatal(err)
	}

	rec := NewReconciler(l)
	if _, err := rec.ApplyCSV(strings.NewReader("Garbage,Header\n1,2"), budget.AlwaysConfirm); err == nil {
		t.Fatal("expected format error")
	}
	if got := l.Expenses(); len(got) != 1 {
		t.Fatalf("ledger mutated on format failure: %+v", got)
	}
}

func TestApplyRowsMalformedInput(t *testing.T) {
	l := budget.NewLedger(budget.DefaultPolicy())
	rec := NewReconciler(l)

	values := [][]interface{}{nil, {"Rent", 5000}}
	if _, err := rec.ApplyRows(values, budget.AlwaysConfirm); err == nil {
		t.Fatal("expected an error from malformed input")
	}
	if len(l.Expenses()) != 0 {
		t.Fatal("ledger mutated after recovered failure")
	}
}
