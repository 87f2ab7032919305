package store

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptrDur(d time.Duration) *time.Duration { return &d }
func ptrFloat(v float64) *float64         { return &v }

// record is a test helper building a day with one category and a metric.
func record(date time.Time, c Category, d time.Duration, metric float64) DailyRecord {
	r := DailyRecord{Date: date, Metric: ptrFloat(metric)}
	r.Durations[c] = ptrDur(d)
	return r
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/mymonth.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertRecord(record(calendar.Date(2021, time.February, 8), CategoryDev, time.Hour, 1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migrations are not re-run.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.GetRecord(calendar.Date(2021, time.February, 8)); err != nil {
		t.Fatalf("record lost after reopen: %v", err)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Days
// ============================================================

func TestFetchRecordsRange(t *testing.T) {
	s := newTestStore(t)
	in := []DailyRecord{
		record(calendar.Date(2021, time.March, 20), CategoryGE, 1000*time.Second, 3.8),
		record(calendar.Date(2021, time.February, 8), CategoryDev, 345*time.Second, 3.8),
		record(calendar.Date(2021, time.March, 10), CategoryDev, 1000*time.Second, 7.8),
		record(calendar.Date(2021, time.February, 20), CategoryGE, 1000*time.Second, 7.8),
	}
	if err := s.UpsertRecords(in); err != nil {
		t.Fatal(err)
	}

	first, last := calendar.MonthBounds(calendar.Date(2021, time.February, 1))
	got, err := s.FetchRecords(first, last)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 February records, got %d", len(got))
	}
	if !got[0].Date.Equal(calendar.Date(2021, time.February, 8)) || !got[1].Date.Equal(calendar.Date(2021, time.February, 20)) {
		t.Fatalf("records out of order: %v, %v", got[0].Date, got[1].Date)
	}
	if got[0].Total() != 345*time.Second || got[1].Total() != 1000*time.Second {
		t.Fatalf("totals = %v, %v", got[0].Total(), got[1].Total())
	}
	if got[0].MetricValue() != 3.8 {
		t.Fatalf("metric = %v", got[0].MetricValue())
	}
}

func TestFetchRecordsEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.FetchRecords(calendar.Date(2021, time.January, 1), calendar.Date(2021, time.December, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestUpsertRecordKeepsNulls(t *testing.T) {
	s := newTestStore(t)
	date := calendar.Date(2021, time.April, 1)
	r := DailyRecord{Date: date}
	r.Durations[CategoryPol] = ptrDur(0)
	if err := s.UpsertRecord(r); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRecord(date)
	if err != nil {
		t.Fatal(err)
	}
	if got.Durations[CategoryPol] == nil || *got.Durations[CategoryPol] != 0 {
		t.Fatal("recorded zero should stay distinct from absent")
	}
	if got.Durations[CategoryDS] != nil || got.Metric != nil {
		t.Fatal("absent fields should read back as nil")
	}
}

func TestUpsertRecordOverwrite(t *testing.T) {
	s := newTestStore(t)
	date := calendar.Date(2021, time.April, 1)
	s.UpsertRecord(record(date, CategoryDS, time.Hour, 2))
	s.UpsertRecord(record(date, CategoryHS, 2*time.Hour, 0))

	got, err := s.GetRecord(date)
	if err != nil {
		t.Fatal(err)
	}
	if got.Durations[CategoryDS] != nil {
		t.Fatal("upsert should replace every field")
	}
	if got.Duration(CategoryHS) != 2*time.Hour || got.MetricValue() != 0 || got.Metric == nil {
		t.Fatalf("record = %+v", got)
	}
}

func TestListRecordsAscending(t *testing.T) {
	s := newTestStore(t)
	dates := []time.Time{
		calendar.Date(2021, time.March, 5),
		calendar.Date(2020, time.December, 31),
		calendar.Date(2021, time.January, 1),
	}
	for _, d := range dates {
		if err := s.UpsertRecord(record(d, CategoryGE, time.Hour, 1)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if !got[0].Date.Equal(dates[1]) || !got[2].Date.Equal(dates[0]) {
		t.Fatalf("records not ascending: %v, %v", got[0].Date, got[2].Date)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRecord(calendar.Date(2021, time.April, 1))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	s := newTestStore(t)
	date := calendar.Date(2021, time.April, 1)
	s.UpsertRecord(record(date, CategoryDS, time.Hour, 2))
	if err := s.DeleteRecord(date); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRecord(date); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEnsureMonth(t *testing.T) {
	s := newTestStore(t)
	existing := record(calendar.Date(2021, time.February, 8), CategoryDev, 345*time.Second, 3.8)
	s.UpsertRecord(existing)

	added, err := s.EnsureMonth(calendar.Date(2021, time.February, 14))
	if err != nil {
		t.Fatal(err)
	}
	if added != 27 {
		t.Fatalf("added = %d, want 27", added)
	}

	got, _ := s.FetchRecords(calendar.MonthBounds(calendar.Date(2021, time.February, 1)))
	if len(got) != 28 {
		t.Fatalf("expected 28 rows, got %d", len(got))
	}
	if got[7].Total() != 345*time.Second {
		t.Fatal("existing row must not be overwritten")
	}
	if !got[0].Empty() {
		t.Fatal("gap rows should be empty")
	}

	again, _ := s.EnsureMonth(calendar.Date(2021, time.February, 1))
	if again != 0 {
		t.Fatalf("second EnsureMonth added %d rows", again)
	}
}

// ============================================================
// Monthly targets
// ============================================================

func TestFetchTargetAbsent(t *testing.T) {
	s := newTestStore(t)
	got, err := s.FetchTarget(calendar.Date(2021, time.February, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil target")
	}
}

func TestUpsertAndFetchTarget(t *testing.T) {
	s := newTestStore(t)
	target := MonthlyTarget{Month: calendar.Date(2021, time.February, 17), Metric: 60, ZeroDays: 10}
	target.Durations[CategoryDev] = 40 * time.Hour
	target.Durations[CategoryHS] = 20 * time.Hour
	if err := s.UpsertTarget(target); err != nil {
		t.Fatal(err)
	}

	got, err := s.FetchTarget(calendar.Date(2021, time.February, 3))
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("target not found")
	}
	if !got.Month.Equal(calendar.Date(2021, time.February, 1)) {
		t.Fatalf("month = %v, want first of month", got.Month)
	}
	if got.Total() != 60*time.Hour || got.Metric != 60 || got.ZeroDays != 10 {
		t.Fatalf("target = %+v", got)
	}

	target.Durations[CategoryDev] = 10 * time.Hour
	s.UpsertTarget(target)
	got, _ = s.FetchTarget(target.Month)
	if got.Duration(CategoryDev) != 10*time.Hour {
		t.Fatalf("dev after update = %v", got.Duration(CategoryDev))
	}
}

func TestListTargets(t *testing.T) {
	s := newTestStore(t)
	s.UpsertTarget(MonthlyTarget{Month: calendar.Date(2021, time.March, 1)})
	s.UpsertTarget(MonthlyTarget{Month: calendar.Date(2021, time.January, 1)})

	got, err := s.ListTargets()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Month.Month() != time.January {
		t.Fatalf("targets = %+v", got)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		WeekdayTargetKey(time.Monday):   "2h",
		WeekdayTargetKey(time.Friday):   "2h",
		WeekdayTargetKey(time.Saturday): "4h",
		WeekdayTargetKey(time.Sunday):   "4h",
		SettingPenaltyThreshold:         "2.86",
		SettingPenaltyUnit:              "20m",
		SettingMetricUnit:               "7.8",
		SettingMetricDisplay:            "750",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(SettingPenaltyUnit, "30m")
	val, _ := s.GetSetting(SettingPenaltyUnit)
	if val != "30m" {
		t.Fatalf("expected 30m, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 11 {
		t.Fatalf("expected at least 11 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}

	m, err := s.SettingsMap()
	if err != nil {
		t.Fatal(err)
	}
	if m[SettingMetricDisplay] != "750" {
		t.Fatalf("settings map = %v", m)
	}
}

func TestFocusMonth(t *testing.T) {
	s := newTestStore(t)
	today := calendar.Date(2021, time.February, 14)

	got, err := s.FocusMonth(today)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(calendar.Date(2021, time.February, 1)) {
		t.Fatalf("default focus = %v", got)
	}
	if v, _ := s.GetSetting(SettingFocusMonth); v != "2021-02-01" {
		t.Fatalf("focus setting should be persisted, got %q", v)
	}

	if err := s.SetFocusMonth(calendar.Date(2020, time.November, 23)); err != nil {
		t.Fatal(err)
	}
	got, _ = s.FocusMonth(today)
	if !got.Equal(calendar.Date(2020, time.November, 1)) {
		t.Fatalf("focus after set = %v", got)
	}
}

func TestFocusMonthRepairsBadValue(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(SettingFocusMonth, "soon")
	got, err := s.FocusMonth(calendar.Date(2021, time.July, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(calendar.Date(2021, time.July, 1)) {
		t.Fatalf("focus = %v", got)
	}
}
