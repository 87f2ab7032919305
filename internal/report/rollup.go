package report

import (
	"sort"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
)

// MonthlySummary aggregates the daily metrics of one calendar month.
type MonthlySummary struct {
	// Month is the compact key, e.g. "21m02".
	Month      string
	FirstDay   time.Time
	Days       int
	Productive time.Duration
	Target     time.Duration
	Penalty    time.Duration
	Score      float64
	// ZeroDays excludes future days.
	ZeroDays    int
	MetricTotal float64
	// AvgMetric averages MetricTotal over days with activity; 0 when none.
	AvgMetric float64
	// ToDate marks the in-progress month, summarized through today only.
	ToDate bool
}

// AvgDisplay returns AvgMetric in display units.
func (s MonthlySummary) AvgDisplay(cfg Config) float64 {
	return cfg.ToDisplay(s.AvgMetric)
}

// ProductiveString formats productive time for tables, e.g. "26h 5m".
func (s MonthlySummary) ProductiveString() string {
	return duration.FormatLayout(s.Productive, duration.LayoutHM)
}

// Rollup groups daily metrics by calendar month, in first-seen order.
func Rollup(days []DailyMetrics) []MonthlySummary {
	var out []MonthlySummary
	index := make(map[string]int)

	for _, d := range days {
		key := calendar.MonthKey(d.Date)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthlySummary{Month: key, FirstDay: calendar.FirstOfMonth(d.Date)})
		}
		s := &out[i]
		s.Days++
		s.Productive += d.Productive
		s.Target += d.Target
		s.Penalty += d.Penalty
		s.MetricTotal += d.Metric
		if d.ZeroActivity && !d.Future {
			s.ZeroDays++
		}
	}

	// The average denominator counts every zero-activity day, future or not.
	active := make([]int, len(out))
	for _, d := range days {
		if !d.ZeroActivity {
			active[index[calendar.MonthKey(d.Date)]]++
		}
	}
	for i := range out {
		s := &out[i]
		s.Score = ratio(s.Productive-s.Penalty, s.Target)
		if active[i] > 0 {
			s.AvgMetric = s.MetricTotal / float64(active[i])
		}
	}
	return out
}

// RankByMetric labels the n summaries with the lowest average metric with
// their ordinal rank ("1st", "2nd", ...); the rest get "". Months without
// activity are not ranked. Ties keep their original order.
func RankByMetric(summaries []MonthlySummary, n int) []string {
	ranks := make([]string, len(summaries))
	order := make([]int, 0, len(summaries))
	for i, s := range summaries {
		if s.AvgMetric > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return summaries[order[a]].AvgMetric < summaries[order[b]].AvgMetric
	})
	for pos, i := range order {
		if pos >= n {
			break
		}
		ranks[i] = calendar.Ordinal(pos + 1)
	}
	return ranks
}
