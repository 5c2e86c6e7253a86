package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single categorized spending record. Category keeps its
	// original casing; identity for merge detection is case-insensitive.
	Expense struct {
		Date     Date
		Category string
		Amount   Money
	}

	// SavingsGoal tracks progress toward a fixed target. Saved accumulates
	// only through explicit contributions and is never clamped to the target.
	SavingsGoal struct {
		ID     int64
		Name   string
		Target Money
		Saved  Money
	}

	// MonthlySnapshot is a persisted point-in-time copy of ledger data,
	// tagged with the month it was saved in.
	MonthlySnapshot struct {
		MonthKey   string
		Income     Money
		Expenses   []Expense
		TotalSpent Money
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyName     = errors.New("empty name")
	ErrGoalNotFound  = errors.New("goal not found")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeCategory trims surrounding whitespace, preserving inner casing.
func NormalizeCategory(s string) string {
	return strings.TrimSpace(s)
}

// SameCategory reports whether two category names denote the same category.
// Comparison is case-insensitive after trimming.
func SameCategory(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (e Expense) Validate() error {
	if NormalizeCategory(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Amount.Validate()
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Saved.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the goal's completion as a percentage for display,
// capped at 100. The stored Saved value itself is never clamped.
func (g SavingsGoal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	p := float64(g.Saved.Cents) / float64(g.Target.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}

// MonthKey formats t as the "YYYY-MM" snapshot tag.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
