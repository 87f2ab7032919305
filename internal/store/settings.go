package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
)

// Setting keys.
const (
	SettingFocusMonth       = "focus_month"
	SettingPenaltyThreshold = "penalty_threshold"
	SettingPenaltyUnit      = "penalty_unit"
	SettingMetricUnit       = "metric_unit"
	SettingMetricDisplay    = "metric_display"
)

var weekdayKeys = [7]string{
	time.Sunday:    "target_sun",
	time.Monday:    "target_mon",
	time.Tuesday:   "target_tue",
	time.Wednesday: "target_wed",
	time.Thursday:  "target_thu",
	time.Friday:    "target_fri",
	time.Saturday:  "target_sat",
}

// WeekdayTargetKey is the settings key holding the daily target for wd.
func WeekdayTargetKey(wd time.Weekday) string {
	return weekdayKeys[wd]
}

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// SettingsMap returns all settings keyed by name.
func (s *Store) SettingsMap() (map[string]string, error) {
	settings, err := s.GetAllSettings()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(settings))
	for _, st := range settings {
		m[st.Key] = st.Value
	}
	return m, nil
}

// FocusMonth returns the month currently being viewed. When the setting is
// missing or unreadable it is created from today's month.
func (s *Store) FocusMonth(today time.Time) (time.Time, error) {
	v, err := s.GetSetting(SettingFocusMonth)
	if err == nil {
		if month, perr := calendar.ParseDate(v); perr == nil {
			return calendar.FirstOfMonth(month), nil
		}
	} else if !errors.Is(err, ErrNotFound) {
		return time.Time{}, err
	}

	month := calendar.FirstOfMonth(today)
	if err := s.SetFocusMonth(month); err != nil {
		return time.Time{}, err
	}
	return month, nil
}

// SetFocusMonth stores the month containing month as the focus month.
func (s *Store) SetFocusMonth(month time.Time) error {
	v := calendar.FirstOfMonth(month).Format(calendar.DateLayout)
	if err := s.SetSetting(SettingFocusMonth, v); err != nil {
		return fmt.Errorf("set focus month: %w", err)
	}
	return nil
}
