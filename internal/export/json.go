package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/report"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Months     []jsonMonth `json:"months"`
}

type jsonMonth struct {
	Month         string  `json:"month"`
	FirstDay      string  `json:"first_day"`
	Days          int     `json:"days"`
	ProductiveSec int64   `json:"productive_seconds"`
	Productive    string  `json:"productive"`
	TargetSec     int64   `json:"target_seconds"`
	PenaltySec    int64   `json:"penalty_seconds"`
	Score         float64 `json:"score"`
	ZeroDays      int     `json:"zero_days"`
	AvgMetric     float64 `json:"avg_metric"`
	AvgML         int     `json:"avg_ml"`
	Rank          string  `json:"rank,omitempty"`
	ToDate        bool    `json:"to_date,omitempty"`
}

// SummaryToJSON writes monthly summaries with their metric ranks.
func SummaryToJSON(summaries []report.MonthlySummary, cfg report.Config, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(summaries),
		Months:     []jsonMonth{},
	}

	ranks := report.RankByMetric(summaries, 5)
	for i, s := range summaries {
		export.Months = append(export.Months, jsonMonth{
			Month:         s.Month,
			FirstDay:      s.FirstDay.Format(calendar.DateLayout),
			Days:          s.Days,
			ProductiveSec: int64(s.Productive / time.Second),
			Productive:    duration.FormatLayout(s.Productive, duration.LayoutHM),
			TargetSec:     int64(s.Target / time.Second),
			PenaltySec:    int64(s.Penalty / time.Second),
			Score:         s.Score,
			ZeroDays:      s.ZeroDays,
			AvgMetric:     s.AvgMetric,
			AvgML:         cfg.MLEquivalent(s.AvgMetric),
			Rank:          ranks[i],
			ToDate:        s.ToDate,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FileName builds a dated export file name, e.g. "mymonth-days-2021-02-14.csv".
func FileName(kind, ext string, day time.Time) string {
	return fmt.Sprintf("mymonth-%s-%s.%s", kind, day.Format(calendar.DateLayout), ext)
}
