package report

import (
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/store"
)

func ptrDur(d time.Duration) *time.Duration { return &d }
func ptrFloat(v float64) *float64         { return &v }

// rec builds a record with one category duration and a metric.
func rec(date time.Time, c store.Category, d time.Duration, metric float64) store.DailyRecord {
	r := store.DailyRecord{Date: date, Metric: ptrFloat(metric)}
	r.Durations[c] = ptrDur(d)
	return r
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// fakeRepo serves records and targets from memory.
type fakeRepo struct {
	records []store.DailyRecord
	targets map[string]store.MonthlyTarget
}

func (f *fakeRepo) FetchRecords(from, to time.Time) ([]store.DailyRecord, error) {
	var out []store.DailyRecord
	for _, r := range f.records {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeRepo) FetchTarget(month time.Time) (*store.MonthlyTarget, error) {
	t, ok := f.targets[calendar.MonthKey(month)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// ============================================================
// Config
// ============================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.TargetFor(calendar.Date(2021, time.February, 8)); got != 2*time.Hour {
		t.Errorf("Monday target = %v, want 2h", got)
	}
	if got := cfg.TargetFor(calendar.Date(2021, time.February, 20)); got != 4*time.Hour {
		t.Errorf("Saturday target = %v, want 4h", got)
	}
}

func TestPenalty(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		metric float64
		want   time.Duration
	}{
		{0, 0},
		{2.86, 0},
		{-1, 0},
		{3.86, 20 * time.Minute},
		{3.8, 1128 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Penalty(tt.metric); got != tt.want {
			t.Errorf("Penalty(%v) = %v, want %v", tt.metric, got, tt.want)
		}
	}
}

func TestMLEquivalent(t *testing.T) {
	tests := []struct {
		metric float64
		want   int
	}{
		{7.8, 750},
		{3.9, 375},
		{0, 0},
		{0.01, 1}, // 0.96 rounds up
		{1, 96},   // 96.15
	}
	for _, tt := range tests {
		if got := MLEquivalent(tt.metric); got != tt.want {
			t.Errorf("MLEquivalent(%v) = %d, want %d", tt.metric, got, tt.want)
		}
	}
}

func TestConfigFromSettings(t *testing.T) {
	cfg, err := ConfigFromSettings(map[string]string{
		store.WeekdayTargetKey(time.Monday): "3h 30m",
		store.SettingPenaltyThreshold:       "3",
		store.SettingPenaltyUnit:            "10m",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WeekdayTargets[time.Monday] != 3*time.Hour+30*time.Minute {
		t.Errorf("Monday = %v", cfg.WeekdayTargets[time.Monday])
	}
	if cfg.WeekdayTargets[time.Sunday] != 4*time.Hour {
		t.Errorf("Sunday should keep default, got %v", cfg.WeekdayTargets[time.Sunday])
	}
	if cfg.PenaltyThreshold != 3 || cfg.PenaltyUnit != 10*time.Minute {
		t.Errorf("penalty = %v/%v", cfg.PenaltyThreshold, cfg.PenaltyUnit)
	}
}

func TestConfigFromSettingsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"zero target":  {store.WeekdayTargetKey(time.Friday): "0m"},
		"garbage":      {store.WeekdayTargetKey(time.Friday): "soon"},
		"bad float":    {store.SettingMetricUnit: "x"},
		"zero divisor": {store.SettingMetricUnit: "0"},
	}
	for name, settings := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ConfigFromSettings(settings); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

// ============================================================
// Aggregate
// ============================================================

func TestAggregateFetchedRecords(t *testing.T) {
	records := []store.DailyRecord{
		rec(calendar.Date(2021, time.February, 8), store.CategoryDev, 345*time.Second, 3.8),
		rec(calendar.Date(2021, time.February, 20), store.CategoryGE, 1000*time.Second, 7.8),
	}
	days, err := Aggregate(records, DefaultConfig(), calendar.Date(2021, time.March, 25))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Productive != 345*time.Second || days[1].Productive != 1000*time.Second {
		t.Errorf("productive = %v, %v", days[0].Productive, days[1].Productive)
	}
	for _, d := range days {
		if d.ZeroActivity || d.ZeroDaysSoFar != 0 {
			t.Errorf("%s should not be zero-activity", d.Date.Format(calendar.DateLayout))
		}
	}

	wantScore := (345.0 - 1128.0) / 7200.0
	if !approx(days[0].Score, wantScore) {
		t.Errorf("score = %v, want %v", days[0].Score, wantScore)
	}
	if days[1].CumTarget != 6*time.Hour {
		t.Errorf("cum target = %v, want 6h", days[1].CumTarget)
	}
	if days[1].CumProductive != 1345*time.Second {
		t.Errorf("cum productive = %v", days[1].CumProductive)
	}
	wantCum := float64(days[1].CumProductive-days[1].CumPenalty) / float64(6*time.Hour)
	if !approx(days[1].CumScore, wantCum) {
		t.Errorf("cum score = %v, want %v", days[1].CumScore, wantCum)
	}
	if !approx(days[1].AvgDisplay, (3.8+7.8)/2/7.8*750) {
		t.Errorf("avg display = %v", days[1].AvgDisplay)
	}
	if days[1].CumCategories[store.CategoryDev] != 345*time.Second || days[1].CumCategories[store.CategoryGE] != 1000*time.Second {
		t.Errorf("cum categories = %v", days[1].CumCategories)
	}
}

func TestAggregateZeroDaysIgnoreFuture(t *testing.T) {
	first, last := calendar.MonthBounds(calendar.Date(2021, time.April, 1))
	filled := FillGaps(nil, first, last)
	days, err := Aggregate(filled, DefaultConfig(), calendar.Date(2021, time.April, 10))
	if err != nil {
		t.Fatal(err)
	}
	if got := days[len(days)-1].ZeroDaysSoFar; got != 10 {
		t.Fatalf("zero days so far = %d, want 10", got)
	}
	if !days[10].Future || days[9].Future {
		t.Fatal("future flag should start on the 11th")
	}
	if !days[20].ZeroActivity {
		t.Fatal("future empty day is still zero-activity")
	}
}

func TestAggregateRecordedZeroMetric(t *testing.T) {
	records := []store.DailyRecord{rec(calendar.Date(2021, time.April, 1), store.CategoryDS, time.Hour, 0)}
	days, err := Aggregate(records, DefaultConfig(), calendar.Date(2021, time.April, 30))
	if err != nil {
		t.Fatal(err)
	}
	if !days[0].ZeroActivity || days[0].ZeroDaysSoFar != 1 {
		t.Fatal("metric recorded as 0 counts as zero-activity")
	}
}

func TestAggregateUnsorted(t *testing.T) {
	records := []store.DailyRecord{
		{Date: calendar.Date(2021, time.February, 2)},
		{Date: calendar.Date(2021, time.February, 1)},
	}
	if _, err := Aggregate(records, DefaultConfig(), calendar.Date(2021, time.March, 1)); !errors.Is(err, ErrUnsorted) {
		t.Fatalf("expected ErrUnsorted, got %v", err)
	}

	dup := []store.DailyRecord{records[1], records[1]}
	if _, err := Aggregate(dup, DefaultConfig(), calendar.Date(2021, time.March, 1)); !errors.Is(err, ErrUnsorted) {
		t.Fatalf("duplicate dates: expected ErrUnsorted, got %v", err)
	}
}

func TestAggregateZeroTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WeekdayTargets[time.Monday] = 0
	records := []store.DailyRecord{{Date: calendar.Date(2021, time.February, 8)}}
	if _, err := Aggregate(records, cfg, calendar.Date(2021, time.March, 1)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFillGaps(t *testing.T) {
	first, last := calendar.MonthBounds(calendar.Date(2021, time.February, 1))
	in := []store.DailyRecord{
		rec(calendar.Date(2021, time.January, 31), store.CategoryDev, time.Hour, 1),
		rec(calendar.Date(2021, time.February, 8), store.CategoryDev, 345*time.Second, 3.8),
		rec(calendar.Date(2021, time.February, 8), store.CategoryDev, time.Hour, 1),
	}
	out := FillGaps(in, first, last)
	if len(out) != 28 {
		t.Fatalf("expected 28 records, got %d", len(out))
	}
	if !out[0].Date.Equal(first) || !out[27].Date.Equal(last) {
		t.Fatalf("range = %v..%v", out[0].Date, out[27].Date)
	}
	if out[7].Total() != 345*time.Second {
		t.Fatalf("first record for a date should win, got %v", out[7].Total())
	}
	if !out[0].Empty() {
		t.Fatal("synthesized day should be empty")
	}
	if in[0].Date.Month() != time.January {
		t.Fatal("input should not be modified")
	}
}

// ============================================================
// Rollup
// ============================================================

func TestRollupAverageExcludesZeroDays(t *testing.T) {
	var records []store.DailyRecord
	for _, d := range calendar.MonthDates(calendar.Date(2021, time.April, 1)) {
		switch {
		case d.Day() <= 5:
			records = append(records, store.DailyRecord{Date: d, Metric: ptrFloat(0)})
		case d.Day() == 30:
			records = append(records, store.DailyRecord{Date: d, Metric: ptrFloat(5.8)})
		default:
			records = append(records, store.DailyRecord{Date: d, Metric: ptrFloat(3.0)})
		}
	}
	days, err := Aggregate(records, DefaultConfig(), calendar.Date(2021, time.May, 1))
	if err != nil {
		t.Fatal(err)
	}
	sums := Rollup(days)
	if len(sums) != 1 {
		t.Fatalf("expected 1 month, got %d", len(sums))
	}
	s := sums[0]
	if s.Month != "21m04" || s.Days != 30 || s.ZeroDays != 5 {
		t.Fatalf("summary = %+v", s)
	}
	if !approx(s.AvgMetric, 77.8/25) {
		t.Fatalf("avg metric = %v, want %v", s.AvgMetric, 77.8/25)
	}
}

func TestRollupScoreAndGrouping(t *testing.T) {
	records := []store.DailyRecord{
		rec(calendar.Date(2021, time.February, 8), store.CategoryDev, 2*time.Hour, 1),
		rec(calendar.Date(2021, time.March, 1), store.CategoryDev, time.Hour, 1),
		rec(calendar.Date(2021, time.March, 2), store.CategoryDev, 3*time.Hour, 1),
	}
	days, err := Aggregate(records, DefaultConfig(), calendar.Date(2021, time.April, 1))
	if err != nil {
		t.Fatal(err)
	}
	sums := Rollup(days)
	if len(sums) != 2 {
		t.Fatalf("expected 2 months, got %d", len(sums))
	}
	if sums[0].Month != "21m02" || sums[1].Month != "21m03" {
		t.Fatalf("months = %s, %s", sums[0].Month, sums[1].Month)
	}
	if !approx(sums[0].Score, 1) || !approx(sums[1].Score, 1) {
		t.Fatalf("scores = %v, %v", sums[0].Score, sums[1].Score)
	}
	if !sums[1].FirstDay.Equal(calendar.Date(2021, time.March, 1)) {
		t.Fatalf("first day = %v", sums[1].FirstDay)
	}
	if sums[1].ProductiveString() != "4h 0m" {
		t.Fatalf("productive = %q", sums[1].ProductiveString())
	}
}

func TestRollupAllZero(t *testing.T) {
	first, last := calendar.MonthBounds(calendar.Date(2021, time.June, 1))
	days, _ := Aggregate(FillGaps(nil, first, last), DefaultConfig(), calendar.Date(2022, time.January, 1))
	s := Rollup(days)[0]
	if s.AvgMetric != 0 || s.ZeroDays != 30 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestRankByMetric(t *testing.T) {
	avgs := []float64{3, 1, 0, 2, 5, 4, 6, 0.5}
	sums := make([]MonthlySummary, len(avgs))
	for i, a := range avgs {
		sums[i].AvgMetric = a
	}
	got := RankByMetric(sums, 5)
	want := []string{"4th", "2nd", "", "3rd", "", "5th", "", "1st"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ============================================================
// Reconcile
// ============================================================

func TestProrate(t *testing.T) {
	if got := Prorate(28*time.Hour, 14, 28); got != 14*time.Hour {
		t.Errorf("Prorate = %v, want 14h", got)
	}
	if got := Prorate(time.Hour, 1, 0); got != 0 {
		t.Errorf("Prorate with zero days = %v", got)
	}
}

func TestReconcileMissingTarget(t *testing.T) {
	sc, err := Reconcile(nil, nil, calendar.Date(2021, time.February, 1), 5)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Available {
		t.Fatal("scorecard without target should be unavailable")
	}
	if sc.DaysInMonth != 28 {
		t.Fatalf("days in month = %d", sc.DaysInMonth)
	}
}

func TestReconcileBacklog(t *testing.T) {
	month := calendar.Date(2021, time.February, 1)
	first, last := calendar.MonthBounds(month)
	records := []store.DailyRecord{
		rec(calendar.Date(2021, time.February, 8), store.CategoryDev, 345*time.Second, 3.8),
		rec(calendar.Date(2021, time.February, 9), store.CategoryDS, 10*time.Hour, 1),
	}
	days, err := Aggregate(FillGaps(records, first, last), DefaultConfig(), calendar.Date(2021, time.February, 14))
	if err != nil {
		t.Fatal(err)
	}

	target := &store.MonthlyTarget{Month: month, Metric: 28, ZeroDays: 14}
	target.Durations[store.CategoryDev] = 10 * time.Hour
	target.Durations[store.CategoryDS] = 2 * time.Hour

	sc, err := Reconcile(target, days, month, 14)
	if err != nil {
		t.Fatal(err)
	}
	if !sc.Available {
		t.Fatal("expected available scorecard")
	}

	dev := sc.Categories[store.CategoryDev]
	if dev.Prorated != 5*time.Hour || dev.Actual != 345*time.Second {
		t.Fatalf("dev = %+v", dev)
	}
	if !dev.Behind() || dev.BacklogString() != "-4h 54m" {
		t.Fatalf("dev backlog = %q", dev.BacklogString())
	}

	ds := sc.Categories[store.CategoryDS]
	if ds.Behind() || ds.BacklogString() != "9h" {
		t.Fatalf("ds backlog = %q", ds.BacklogString())
	}

	if sc.Total.Prorated != 6*time.Hour || sc.Total.Backlog() != 10*time.Hour+345*time.Second-6*time.Hour {
		t.Fatalf("total = %+v", sc.Total)
	}
	if !approx(sc.Metric.Prorated, 14) || !approx(sc.Metric.Actual, 4.8) {
		t.Fatalf("metric = %+v", sc.Metric)
	}
	if sc.ZeroDays != 12 || !approx(sc.ZeroDaysProrated, 7) {
		t.Fatalf("zero days = %d / %v", sc.ZeroDays, sc.ZeroDaysProrated)
	}
}

func TestReconcileElapsedOutOfRange(t *testing.T) {
	target := &store.MonthlyTarget{Month: calendar.Date(2021, time.February, 1)}
	if _, err := Reconcile(target, nil, target.Month, 29); err == nil {
		t.Fatal("expected error for elapsed beyond month end")
	}
	if _, err := Reconcile(target, nil, target.Month, 0); err == nil {
		t.Fatal("expected error for elapsed 0")
	}
}

// ============================================================
// Service
// ============================================================

func endToEndRepo() *fakeRepo {
	return &fakeRepo{
		records: []store.DailyRecord{
			rec(calendar.Date(2021, time.March, 20), store.CategoryGE, 1000*time.Second, 3.8),
			rec(calendar.Date(2021, time.February, 8), store.CategoryDev, 345*time.Second, 3.8),
			rec(calendar.Date(2021, time.March, 10), store.CategoryDev, 1000*time.Second, 7.8),
			rec(calendar.Date(2021, time.February, 20), store.CategoryGE, 1000*time.Second, 7.8),
		},
		targets: map[string]store.MonthlyTarget{},
	}
}

func TestMonthReportPastMonth(t *testing.T) {
	svc := NewService(endToEndRepo(), DefaultConfig())
	svc.SetClock(fixedClock(time.Date(2021, time.March, 25, 18, 0, 0, 0, time.UTC)))

	rep, err := svc.MonthReport(calendar.Date(2021, time.February, 15))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Records) != 28 || len(rep.Days) != 28 {
		t.Fatalf("expected 28 days, got %d/%d", len(rep.Records), len(rep.Days))
	}
	if rep.Scorecard.Available {
		t.Fatal("no target stored, scorecard should be unavailable")
	}
	if rep.Scorecard.ElapsedDays != 28 {
		t.Fatalf("elapsed = %d, want 28", rep.Scorecard.ElapsedDays)
	}
	if rep.Days[7].Productive != 345*time.Second || rep.Days[19].Productive != 1000*time.Second {
		t.Fatalf("productive = %v, %v", rep.Days[7].Productive, rep.Days[19].Productive)
	}
	if got := rep.Days[27].ZeroDaysSoFar; got != 26 {
		t.Fatalf("zero days = %d, want 26", got)
	}
}

func TestMonthReportWithTarget(t *testing.T) {
	repo := endToEndRepo()
	target := store.MonthlyTarget{Month: calendar.Date(2021, time.March, 1)}
	target.Durations[store.CategoryDev] = 31 * time.Hour
	repo.targets["21m03"] = target

	svc := NewService(repo, DefaultConfig())
	svc.SetClock(fixedClock(calendar.Date(2021, time.March, 10)))

	rep, err := svc.MonthReport(calendar.Date(2021, time.March, 1))
	if err != nil {
		t.Fatal(err)
	}
	sc := rep.Scorecard
	if !sc.Available || sc.ElapsedDays != 10 {
		t.Fatalf("scorecard = %+v", sc)
	}
	dev := sc.Categories[store.CategoryDev]
	if dev.Prorated != 10*time.Hour || dev.Actual != 1000*time.Second {
		t.Fatalf("dev = %+v", dev)
	}
}

func TestMonthReportFutureMonth(t *testing.T) {
	svc := NewService(endToEndRepo(), DefaultConfig())
	svc.SetClock(fixedClock(calendar.Date(2021, time.January, 15)))

	rep, err := svc.MonthReport(calendar.Date(2021, time.March, 1))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Scorecard.ElapsedDays != 1 {
		t.Fatalf("future month elapsed = %d, want 1", rep.Scorecard.ElapsedDays)
	}
	if rep.Days[30].ZeroDaysSoFar != 0 {
		t.Fatal("future days must not count as zero days")
	}
}

func TestHistory(t *testing.T) {
	svc := NewService(endToEndRepo(), DefaultConfig())
	svc.SetClock(fixedClock(calendar.Date(2021, time.March, 15)))

	sums, err := svc.History(calendar.Date(2021, time.March, 15), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected February plus March to date, got %d rows", len(sums))
	}
	feb, mar := sums[0], sums[1]
	if feb.Month != "21m02" || feb.Days != 28 || feb.ToDate {
		t.Fatalf("feb = %+v", feb)
	}
	if mar.Month != "21m03" || mar.Days != 15 || !mar.ToDate {
		t.Fatalf("mar = %+v", mar)
	}
	if mar.Productive != 1000*time.Second {
		t.Fatalf("march to date should stop at today, got %v", mar.Productive)
	}
	if !approx(feb.AvgMetric, (3.8+7.8)/2) {
		t.Fatalf("feb avg = %v", feb.AvgMetric)
	}
}

func TestHistorySkipsEmptyMonths(t *testing.T) {
	svc := NewService(endToEndRepo(), DefaultConfig())
	svc.SetClock(fixedClock(calendar.Date(2021, time.June, 2)))

	sums, err := svc.History(calendar.Date(2021, time.June, 2), 1)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, s := range sums {
		keys = append(keys, s.Month)
	}
	want := []string{"21m02", "21m03", "21m06"}
	if len(keys) != len(want) {
		t.Fatalf("months = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("months = %v, want %v", keys, want)
		}
	}
}

func TestSetConfigValidates(t *testing.T) {
	svc := NewService(&fakeRepo{}, DefaultConfig())
	bad := DefaultConfig()
	bad.WeekdayTargets[time.Tuesday] = 0
	if err := svc.SetConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if svc.Config().WeekdayTargets[time.Tuesday] != 2*time.Hour {
		t.Fatal("invalid config must not be applied")
	}
}
