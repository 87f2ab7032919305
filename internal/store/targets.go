package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
)

const targetColumns = `month, ds, dev, pol, ge, crt, hs, alk, days0`

func scanTarget(row rowScanner) (MonthlyTarget, error) {
	var (
		t     MonthlyTarget
		month string
		secs  [NumCategories]int64
	)
	err := row.Scan(&month, &secs[0], &secs[1], &secs[2], &secs[3], &secs[4], &secs[5], &t.Metric, &t.ZeroDays)
	if err != nil {
		return t, err
	}
	t.Month, err = calendar.ParseDate(month)
	if err != nil {
		return t, err
	}
	for i, v := range secs {
		t.Durations[i] = time.Duration(v) * time.Second
	}
	return t, nil
}

// FetchTarget returns the target of the month containing month, or nil when
// none has been configured.
func (s *Store) FetchTarget(month time.Time) (*MonthlyTarget, error) {
	key := calendar.FirstOfMonth(month).Format(calendar.DateLayout)
	t, err := scanTarget(s.db.QueryRow(`SELECT `+targetColumns+` FROM monthly_targets WHERE month = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch target %s: %w", key, err)
	}
	return &t, nil
}

// UpsertTarget stores t under the first day of its month.
func (s *Store) UpsertTarget(t MonthlyTarget) error {
	key := calendar.FirstOfMonth(t.Month).Format(calendar.DateLayout)
	args := []any{key}
	for _, d := range t.Durations {
		args = append(args, int64(d/time.Second))
	}
	args = append(args, t.Metric, t.ZeroDays)

	_, err := s.db.Exec(
		`INSERT INTO monthly_targets (`+targetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(month) DO UPDATE SET
			ds = excluded.ds, dev = excluded.dev, pol = excluded.pol, ge = excluded.ge,
			crt = excluded.crt, hs = excluded.hs, alk = excluded.alk, days0 = excluded.days0`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("upsert target %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListTargets() ([]MonthlyTarget, error) {
	rows, err := s.db.Query(`SELECT ` + targetColumns + ` FROM monthly_targets ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []MonthlyTarget
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
