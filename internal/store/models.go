package store

import "time"

// Category is one of the tracked daily time allocations.
type Category int

const (
	CategoryDS Category = iota
	CategoryDev
	CategoryPol
	CategoryGE
	CategoryCRT
	CategoryHS

	NumCategories = 6
)

// MetricColumn names the metric in the database and in CSV files.
const MetricColumn = "alk"

var categoryColumns = [NumCategories]string{"ds", "dev", "pol", "ge", "crt", "hs"}

var categoryLabels = [NumCategories]string{
	"Data Science",
	"Developer",
	"Polyglot",
	"Explorer",
	"Create, Think, Read",
	"Home, Family",
}

// Categories lists all categories in display order.
func Categories() []Category {
	return []Category{CategoryDS, CategoryDev, CategoryPol, CategoryGE, CategoryCRT, CategoryHS}
}

// Column is the short name used for the database column and CSV header.
func (c Category) Column() string { return categoryColumns[c] }

// Label is the human-readable category name.
func (c Category) Label() string { return categoryLabels[c] }

// DailyRecord is one row of the days table. Nil fields were not recorded.
type DailyRecord struct {
	Date      time.Time
	Durations [NumCategories]*time.Duration
	Metric    *float64
}

// Duration returns the recorded duration for c, or zero when absent.
func (r DailyRecord) Duration(c Category) time.Duration {
	if d := r.Durations[c]; d != nil {
		return *d
	}
	return 0
}

// Total sums all categories, treating absent values as zero.
func (r DailyRecord) Total() time.Duration {
	var total time.Duration
	for _, c := range Categories() {
		total += r.Duration(c)
	}
	return total
}

// MetricValue returns the metric, or zero when absent.
func (r DailyRecord) MetricValue() float64 {
	if r.Metric == nil {
		return 0
	}
	return *r.Metric
}

// Empty reports whether nothing was recorded for the day.
func (r DailyRecord) Empty() bool {
	if r.Metric != nil {
		return false
	}
	for _, d := range r.Durations {
		if d != nil {
			return false
		}
	}
	return true
}

// MonthlyTarget is the whole-month budget, keyed by the month's first day.
type MonthlyTarget struct {
	Month     time.Time
	Durations [NumCategories]time.Duration
	Metric    float64
	ZeroDays  int
}

func (t MonthlyTarget) Duration(c Category) time.Duration {
	return t.Durations[c]
}

// Total sums the category targets.
func (t MonthlyTarget) Total() time.Duration {
	var total time.Duration
	for _, d := range t.Durations {
		total += d
	}
	return total
}

type Setting struct {
	Key   string
	Value string
}
