package core

import (
	"fmt"
	"time"
)

// Period is a calendar month used to scope aggregation. Month is 1-based.
type Period struct {
	Year  int
	Month time.Month
}

var frenchShortMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// PeriodOf returns the period containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// NewPeriod validates a year and 1-based month.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 1970 || year > 9999 {
		return Period{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Contains reports whether t falls within the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// AddMonths shifts the period by n months, crossing year boundaries.
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return PeriodOf(t)
}

// Trailing returns the n periods ending at p, oldest first.
func (p Period) Trailing(n int) []Period {
	out := make([]Period, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, p.AddMonths(-i))
	}
	return out
}

// Label is the French short month name, as shown on charts.
func (p Period) Label() string {
	return frenchShortMonths[p.Month-1]
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
