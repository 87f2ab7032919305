// Package report turns daily records into derived daily metrics, monthly
// summaries and target scorecards. Every function here is pure: it works on
// the slice it is given and keeps no state between calls.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/store"
)

// ErrUnsorted is returned when records are not strictly ascending by date.
var ErrUnsorted = errors.New("records are not in ascending date order")

// DailyMetrics holds the values derived for one day plus running totals
// over the period up to and including that day.
type DailyMetrics struct {
	Date       time.Time
	Categories [store.NumCategories]time.Duration
	Productive time.Duration
	Target     time.Duration
	Penalty    time.Duration
	Metric     float64
	// Score is (Productive - Penalty) / Target; it may exceed 1 or go negative.
	Score float64
	// ZeroActivity is set when the metric is absent or not positive.
	ZeroActivity bool
	// Future is set for days after the aggregation's today.
	Future bool

	CumCategories [store.NumCategories]time.Duration
	CumProductive time.Duration
	CumTarget     time.Duration
	CumPenalty    time.Duration
	CumMetric     float64
	CumScore      float64
	// AvgDisplay is the running average metric in display units.
	AvgDisplay float64
	// ZeroDaysSoFar counts zero-activity days up to here, ignoring future days.
	ZeroDaysSoFar int
}

// FillGaps returns one record per day in [from, to]. Days missing from
// records are synthesized empty; records outside the range are dropped and a
// repeated date keeps its first record. The input is not modified.
func FillGaps(records []store.DailyRecord, from, to time.Time) []store.DailyRecord {
	byDate := make(map[string]store.DailyRecord, len(records))
	for _, r := range records {
		key := r.Date.Format(calendar.DateLayout)
		if _, seen := byDate[key]; !seen {
			byDate[key] = r
		}
	}

	dates := calendar.DatesBetween(from, to)
	out := make([]store.DailyRecord, 0, len(dates))
	for _, d := range dates {
		if r, ok := byDate[d.Format(calendar.DateLayout)]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, store.DailyRecord{Date: d})
	}
	return out
}

// Aggregate derives per-day metrics and left-to-right running totals.
// Records must be strictly ascending by date; a zero weekday target in cfg
// is reported as ErrInvalidConfig.
func Aggregate(records []store.DailyRecord, cfg Config, today time.Time) ([]DailyMetrics, error) {
	today = calendar.Day(today)
	out := make([]DailyMetrics, 0, len(records))

	var prev DailyMetrics
	for i, r := range records {
		if i > 0 && !r.Date.After(records[i-1].Date) {
			return nil, fmt.Errorf("%w: %s after %s", ErrUnsorted,
				r.Date.Format(calendar.DateLayout), records[i-1].Date.Format(calendar.DateLayout))
		}

		m := DailyMetrics{
			Date:   r.Date,
			Target: cfg.TargetFor(r.Date),
			Metric: r.MetricValue(),
			Future: r.Date.After(today),
		}
		if m.Target <= 0 {
			return nil, fmt.Errorf("%w: no target for %s", ErrInvalidConfig, r.Date.Weekday())
		}
		for _, c := range store.Categories() {
			m.Categories[c] = r.Duration(c)
		}
		m.Productive = r.Total()
		m.Penalty = cfg.Penalty(m.Metric)
		m.Score = ratio(m.Productive-m.Penalty, m.Target)
		m.ZeroActivity = r.Metric == nil || *r.Metric <= 0

		for c := range m.CumCategories {
			m.CumCategories[c] = prev.CumCategories[c] + m.Categories[c]
		}
		m.CumProductive = prev.CumProductive + m.Productive
		m.CumTarget = prev.CumTarget + m.Target
		m.CumPenalty = prev.CumPenalty + m.Penalty
		m.CumMetric = prev.CumMetric + m.Metric
		m.CumScore = ratio(m.CumProductive-m.CumPenalty, m.CumTarget)
		m.AvgDisplay = cfg.ToDisplay(m.CumMetric / float64(i+1))
		m.ZeroDaysSoFar = prev.ZeroDaysSoFar
		if m.ZeroActivity && !m.Future {
			m.ZeroDaysSoFar++
		}

		out = append(out, m)
		prev = m
	}
	return out, nil
}

func ratio(num, den time.Duration) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
