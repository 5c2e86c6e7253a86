package budget

import (
	"fmt"

	"phambili/internal/core"
)

// ValidateAmount checks an amount in cents against a lower bound and an
// optional upper bound (maxCents == 0 means unbounded). The returned error
// names the field and the violated bound so it can be surfaced to the user
// as-is; it wraps core.ErrInvalidAmount for programmatic checks.
func ValidateAmount(cents, minCents, maxCents int64, field string) error {
	if cents < minCents {
		return fmt.Errorf("%s must be at least %s: %w",
			field, core.Money{Cents: minCents}, core.ErrInvalidAmount)
	}
	if maxCents > 0 && cents > maxCents {
		return fmt.Errorf("%s must be less than %s: %w",
			field, core.Money{Cents: maxCents}, core.ErrInvalidAmount)
	}
	return nil
}
