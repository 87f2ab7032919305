package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/store"
)

const dateColumn = "date"

func header() []string {
	h := []string{dateColumn}
	for _, c := range store.Categories() {
		h = append(h, c.Column())
	}
	return append(h, store.MetricColumn)
}

// ToCSV writes one row per record with every duration component kept, so
// FromCSV reads back the same values. Absent values are written as empty cells.
func ToCSV(records []store.DailyRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header()); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{r.Date.Format(calendar.DateLayout)}
		for _, c := range store.Categories() {
			row = append(row, duration.FormatExactPtr(r.Durations[c]))
		}
		metric := ""
		if r.Metric != nil {
			metric = strconv.FormatFloat(*r.Metric, 'f', -1, 64)
		}
		row = append(row, metric)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FromCSV reads daily records written by ToCSV. Columns are matched by
// header name, so their order does not matter and "id" is accepted for the
// date. Unparseable durations and metrics are read as absent.
func FromCSV(path string) ([]store.DailyRecord, error) {
	rows, cols, err := readTable(path)
	if err != nil {
		return nil, err
	}
	dateIdx, ok := cols[dateColumn]
	if !ok {
		dateIdx, ok = cols["id"]
	}
	if !ok {
		return nil, fmt.Errorf("%s: missing %q column", path, dateColumn)
	}

	var records []store.DailyRecord
	for i, row := range rows {
		raw := cell(row, dateIdx)
		if len(raw) > len(calendar.DateLayout) {
			raw = raw[:len(calendar.DateLayout)] // drop a time of day
		}
		date, err := calendar.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		r := store.DailyRecord{Date: date}
		for _, c := range store.Categories() {
			if idx, ok := cols[c.Column()]; ok {
				r.Durations[c] = duration.ParsePtr(cell(row, idx))
			}
		}
		if idx, ok := cols[store.MetricColumn]; ok {
			r.Metric = parseFloatPtr(cell(row, idx))
		}
		records = append(records, r)
	}
	return records, nil
}

// HistoricalRow is a month known only by its aggregate figures.
type HistoricalRow struct {
	Month    string // e.g. "19m07"
	Score    float64
	ZeroDays int
	// ML is the month's average metric in display units.
	ML float64
}

// ReadHistoricalCSV reads rows with month, score, day0 and ml columns.
// Rows with any empty field are skipped.
func ReadHistoricalCSV(path string) ([]HistoricalRow, error) {
	rows, cols, err := readTable(path)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"month", "score", "day0", "ml"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing %q column", path, name)
		}
	}

	var out []HistoricalRow
	for i, row := range rows {
		month := cell(row, cols["month"])
		score := cell(row, cols["score"])
		day0 := cell(row, cols["day0"])
		ml := cell(row, cols["ml"])
		if month == "" || score == "" || day0 == "" || ml == "" {
			continue
		}

		line := i + 2
		if _, err := calendar.ParseMonthKey(month); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		h := HistoricalRow{Month: month}
		if h.Score, err = strconv.ParseFloat(score, 64); err != nil {
			return nil, fmt.Errorf("%s line %d: score: %w", path, line, err)
		}
		zero, err := strconv.ParseFloat(day0, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: day0: %w", path, line, err)
		}
		h.ZeroDays = int(zero)
		if h.ML, err = strconv.ParseFloat(ml, 64); err != nil {
			return nil, fmt.Errorf("%s line %d: ml: %w", path, line, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// Import merges detailed daily records with records expanded from
// history. Detailed days come first, so on a repeated date the detailed
// record is kept. The result is sorted by date.
func Import(days, historical []store.DailyRecord) []store.DailyRecord {
	seen := make(map[string]bool, len(days)+len(historical))
	var out []store.DailyRecord
	for _, group := range [][]store.DailyRecord{days, historical} {
		for _, r := range group {
			key := r.Date.Format(calendar.DateLayout)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func readTable(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	head, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, cols, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
