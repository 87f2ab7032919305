package export

import (
	"fmt"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
)

// ExpandHistorical turns monthly aggregates into one record per calendar
// day, so that rolling the result up reproduces the month's score and
// average metric.
//
// The first ZeroDays days of each month get a metric of 0; the remaining
// days share the month's metric so that the active-day average equals ML.
// All productive time is booked on the dev category, spread evenly so that
// (productive - penalty) / target equals Score.
func ExpandHistorical(rows []HistoricalRow, cfg report.Config) ([]store.DailyRecord, error) {
	var out []store.DailyRecord
	for _, h := range rows {
		month, err := calendar.ParseMonthKey(h.Month)
		if err != nil {
			return nil, fmt.Errorf("historical month: %w", err)
		}
		dates := calendar.MonthDates(month)
		n := len(dates)
		zero := min(max(h.ZeroDays, 0), n)

		activeML := 0.0
		if n > zero {
			activeML = h.ML * float64(n) / float64(n-zero)
		}

		metrics := make([]float64, n)
		var target, penalty time.Duration
		for i, d := range dates {
			if i >= zero {
				metrics[i] = cfg.FromDisplay(activeML)
			}
			target += cfg.TargetFor(d)
			penalty += cfg.Penalty(metrics[i])
		}

		perDay := time.Duration((float64(target)*h.Score + float64(penalty)) / float64(n))
		// Stored durations go through the display format, as a spreadsheet
		// round trip would.
		dev := duration.Parse(duration.Format(perDay))

		for i, d := range dates {
			r := store.DailyRecord{Date: d}
			r.Durations[store.CategoryDev] = &dev
			metric := metrics[i]
			r.Metric = &metric
			out = append(out, r)
		}
	}
	return out, nil
}
