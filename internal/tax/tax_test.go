package tax

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMonthlyDirectBoundaries(t *testing.T) {
	cfg := MonthlyDirect()
	cases := []struct {
		name        string
		incomeCents int64
		wantCents   int64
	}{
		{"zero income", 0, 0},
		{"inside first bracket", 10000000, 1800000}, // R100000 -> R18000
		{"exactly at boundary", 20590000, 3706200},  // R205900 * 0.18
		{"one rand over boundary", 20590100, 3706226},
		{"second boundary", 32160000, 6714400}, // 37062 + 0.26*(321600-205900)
		{"sixth bracket", 150000000, 52777100}, // 218139 + 0.41*(1500000-744800)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cfg.Estimate(tc.incomeCents)
			if got != tc.wantCents {
				t.Fatalf("Estimate(%d) = %d, want %d", tc.incomeCents, got, tc.wantCents)
			}
		})
	}
}

func TestTopBracketAccumulation(t *testing.T) {
	// R2000000 income: marginal accumulation across all seven brackets,
	// never a flat rate on the total.
	cfg := MonthlyDirect()
	got := cfg.Estimate(200000000)
	flat := int64(float64(200000000) * 0.45)
	if got >= flat {
		t.Fatalf("tax %d should be below flat-rate %d", got, flat)
	}
	// 559464 + (2000000-1577300)*0.45 = 749679
	if want := int64(74967900); got != want {
		t.Fatalf("Estimate = %d, want %d", got, want)
	}
}

func TestMonotonicNonDecreasing(t *testing.T) {
	for _, cfg := range []Config{MonthlyDirect(), AnnualizedMonthly()} {
		prev := int64(-1)
		for income := int64(0); income <= 30000000; income += 777700 {
			got := cfg.Estimate(income)
			if got < prev {
				t.Fatalf("%s: tax decreased at income %d: %d < %d", cfg.Table.Name, income, got, prev)
			}
			prev = got
		}
	}
}

func TestAnnualizedMonthly(t *testing.T) {
	cfg := AnnualizedMonthly()
	// R10000/month -> R120000/year, all in the first bracket:
	// 0.18 * 120000 / 12 = R1800/month.
	if got := cfg.Estimate(1000000); got != 180000 {
		t.Fatalf("Estimate(1000000) = %d, want 180000", got)
	}
}

func TestTableValidate(t *testing.T) {
	for _, cfg := range []Config{MonthlyDirect(), AnnualizedMonthly()} {
		if err := cfg.Table.Validate(); err != nil {
			t.Fatalf("%s: %v", cfg.Table.Name, err)
		}
	}

	bad := Table{Brackets: []Bracket{
		{MinCents: 0, MaxCents: 100, Rate: rate("0.1")},
		{MinCents: 50, MaxCents: 0, Rate: rate("0.2")},
	}}
	if err := bad.Validate(); err == nil {
		t.Fatal("overlapping brackets should fail validation")
	}
}

func TestByName(t *testing.T) {
	if _, err := ByName("monthly"); err != nil {
		t.Fatal(err)
	}
	if _, err := ByName("annualized"); err != nil {
		t.Fatal(err)
	}
	if _, err := ByName("weekly"); err == nil {
		t.Fatal("unknown table name should fail")
	}
}

func TestLoadFile(t *testing.T) {
	body := `
name = "flat-test"
annualize = false

[[bracket]]
min = 0.0
max = 1000.0
rate = 0.10

[[bracket]]
min = 1000.0
max = 0.0
rate = 0.20
`
	path := filepath.Join(t.TempDir(), "table.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Table.Name != "flat-test" || len(cfg.Table.Brackets) != 2 {
		t.Fatalf("unexpected table: %+v", cfg.Table)
	}
	// R1500 -> 0.10*1000 + 0.20*500 = R200
	if got := cfg.Estimate(150000); got != 20000 {
		t.Fatalf("Estimate(150000) = %d, want 20000", got)
	}
}
