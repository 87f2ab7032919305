// Package calendar has the month arithmetic shared by the store, the report
// engine and the UI. All dates are calendar days at midnight UTC.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the storage and display format of a calendar day.
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar day, keeping t's wall-clock date.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day as midnight UTC.
func Today() time.Time {
	return Day(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FirstOfMonth returns the first day of ref's month.
func FirstOfMonth(ref time.Time) time.Time {
	return Date(ref.Year(), ref.Month(), 1)
}

// DaysIn returns the number of days in ref's month.
func DaysIn(ref time.Time) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return Date(ref.Year(), ref.Month()+1, 0).Day()
}

// MonthBounds returns the first and last day of ref's month.
func MonthBounds(ref time.Time) (first, last time.Time) {
	first = FirstOfMonth(ref)
	last = Date(ref.Year(), ref.Month(), DaysIn(ref))
	return first, last
}

// MonthDates lists every day of ref's month in ascending order.
func MonthDates(ref time.Time) []time.Time {
	return DatesBetween(MonthBounds(ref))
}

// DatesBetween lists every day from first to last inclusive.
func DatesBetween(first, last time.Time) []time.Time {
	first, last = Day(first), Day(last)
	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ReferenceDay returns the number of elapsed days used when averaging or
// pro-rating over the month [first, last]: today's day of month while the
// month is in progress, the last day once it is over, and the first day
// (1) for a month that has not started.
func ReferenceDay(first, last, today time.Time) int {
	today = Day(today)
	switch {
	case !today.Before(first) && !today.After(last):
		return today.Day()
	case today.After(last):
		return last.Day()
	default:
		return first.Day()
	}
}

// MonthKey is the short month label used for grouping and charts, e.g. "21m02".
func MonthKey(t time.Time) string {
	return t.Format("06m01")
}

// ParseMonthKey parses a "YYmMM" label back to the first day of that month.
func ParseMonthKey(s string) (time.Time, error) {
	t, err := time.Parse("06m01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t, nil
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Ordinal renders a day number with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 22nd.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
