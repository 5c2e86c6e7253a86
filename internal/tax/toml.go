package tax

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
)

// tableFile is the on-disk TOML shape. Monetary bounds are in rand, rates
// are plain decimals:
//
//	name = "custom"
//	annualize = false
//	[[bracket]]
//	min = 0.0
//	max = 205900.0
//	rate = 0.18
type tableFile struct {
	Name      string        `toml:"name"`
	Annualize bool          `toml:"annualize"`
	Brackets  []bracketFile `toml:"bracket"`
}

type bracketFile struct {
	Min  float64 `toml:"min"`
	Max  float64 `toml:"max"`
	Rate float64 `toml:"rate"`
}

// LoadFile reads a bracket-table override from a TOML file. A max of 0 marks
// the unbounded final bracket, as in the built-in tables.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read tax table: %w", err)
	}
	var tf tableFile
	if err := toml.Unmarshal(raw, &tf); err != nil {
		return Config{}, fmt.Errorf("parse tax table: %w", err)
	}
	t := Table{Name: tf.Name}
	for _, b := range tf.Brackets {
		t.Brackets = append(t.Brackets, Bracket{
			MinCents: int64(b.Min * 100),
			MaxCents: int64(b.Max * 100),
			Rate:     decimal.NewFromFloat(b.Rate),
		})
	}
	if err := t.Validate(); err != nil {
		return Config{}, fmt.Errorf("tax table %s: %w", path, err)
	}
	return Config{Table: t, Annualize: tf.Annualize}, nil
}
