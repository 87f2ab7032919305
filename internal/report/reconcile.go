package report

import (
	"fmt"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/store"
)

// Progress compares an actual cumulative duration to its prorated target.
type Progress struct {
	Label    string
	Actual   time.Duration
	Prorated time.Duration
}

// Backlog is Actual - Prorated; negative when behind.
func (p Progress) Backlog() time.Duration {
	return p.Actual - p.Prorated
}

// Behind reports whether actual time trails the prorated target.
func (p Progress) Behind() bool {
	return p.Actual < p.Prorated
}

// BacklogString formats the backlog magnitude with a "-" prefix when behind.
func (p Progress) BacklogString() string {
	return duration.FormatDiff(p.Actual, p.Prorated)
}

// MetricProgress compares the cumulative metric to its prorated target.
type MetricProgress struct {
	Actual   float64
	Prorated float64
}

func (p MetricProgress) Backlog() float64 {
	return p.Actual - p.Prorated
}

// Scorecard is the month-to-date comparison of actuals against targets.
type Scorecard struct {
	// Available is false when no target exists for the month.
	Available   bool
	Month       time.Time
	ElapsedDays int
	DaysInMonth int

	Categories [store.NumCategories]Progress
	Total      Progress
	Metric     MetricProgress

	ZeroDays         int
	ZeroDaysProrated float64
	Score            float64
}

// Prorate scales a monthly target to the elapsed share of the month.
func Prorate(target time.Duration, elapsed, daysInMonth int) time.Duration {
	if daysInMonth <= 0 {
		return 0
	}
	return time.Duration(int64(target) * int64(elapsed) / int64(daysInMonth))
}

// Reconcile compares the month's metrics up to elapsed days with target.
// days must be the aggregated full month; a nil target yields a Scorecard
// with Available unset.
func Reconcile(target *store.MonthlyTarget, days []DailyMetrics, month time.Time, elapsed int) (Scorecard, error) {
	month = calendar.FirstOfMonth(month)
	n := calendar.DaysIn(month)
	sc := Scorecard{Month: month, ElapsedDays: elapsed, DaysInMonth: n}
	if elapsed < 1 || elapsed > n {
		return sc, fmt.Errorf("elapsed day %d out of range 1..%d", elapsed, n)
	}
	if target == nil {
		return sc, nil
	}
	sc.Available = true

	var at DailyMetrics
	if len(days) > 0 {
		i := elapsed - 1
		if i >= len(days) {
			i = len(days) - 1
		}
		at = days[i]
	}

	for _, c := range store.Categories() {
		sc.Categories[c] = Progress{
			Label:    c.Label(),
			Actual:   at.CumCategories[c],
			Prorated: Prorate(target.Durations[c], elapsed, n),
		}
	}
	sc.Total = Progress{
		Label:    "Total",
		Actual:   at.CumProductive,
		Prorated: Prorate(target.Total(), elapsed, n),
	}
	sc.Metric = MetricProgress{
		Actual:   at.CumMetric,
		Prorated: target.Metric * float64(elapsed) / float64(n),
	}
	sc.ZeroDays = at.ZeroDaysSoFar
	sc.ZeroDaysProrated = float64(target.ZeroDays) * float64(elapsed) / float64(n)
	sc.Score = at.CumScore
	return sc, nil
}
