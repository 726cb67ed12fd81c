// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/iwvelando/sales-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the year-month format used for monthly labels.
	DateTimeLayout = constants.DateTimeLayout

	// DayLayout is the format used for window bounds and start dates.
	DayLayout = constants.DayLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseSignupDate parses a free-form timestamp from the input data. Month/day
// ambiguity is resolved month-first. Results are expressed in UTC.
func ParseSignupDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := dateparse.ParseIn(trimmed, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// MonthStart truncates t to midnight UTC on the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthLabel formats t as a year-month label, e.g. "2025-04".
func MonthLabel(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// MonthOfYear returns the calendar month reached by advancing offset months
// from anchor, where anchor is 1 (January) through 12 (December).
func MonthOfYear(anchor, offset int) int {
	m := (anchor - 1 + offset) % constants.MonthsPerYear
	if m < 0 {
		m += constants.MonthsPerYear
	}
	return m + 1
}

// NextMonthAfter returns the calendar month following the one in the given
// year-month label, along with the first day of that month.
func NextMonthAfter(label string) (int, time.Time, error) {
	t, err := time.Parse(DateTimeLayout, label)
	if err != nil {
		return 0, time.Time{}, err
	}
	next := t.AddDate(0, 1, 0)
	return int(next.Month()), next, nil
}

// WithinDays reports whether t falls on a day in the inclusive range
// [start, end]. Only the calendar day of each argument is compared.
func WithinDays(t, start, end time.Time) bool {
	day := DayStart(t)
	return !day.Before(DayStart(start)) && !day.After(DayStart(end))
}
