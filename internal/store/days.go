package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/mymonth/internal/calendar"
)

const dayColumns = `date, ds, dev, pol, ge, crt, hs, alk`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (DailyRecord, error) {
	var (
		r      DailyRecord
		date   string
		secs   [NumCategories]sql.NullInt64
		metric sql.NullFloat64
	)
	err := row.Scan(&date, &secs[0], &secs[1], &secs[2], &secs[3], &secs[4], &secs[5], &metric)
	if err != nil {
		return r, err
	}

	r.Date, err = calendar.ParseDate(date)
	if err != nil {
		return r, err
	}
	for i, v := range secs {
		if v.Valid {
			d := time.Duration(v.Int64) * time.Second
			r.Durations[i] = &d
		}
	}
	if metric.Valid {
		m := metric.Float64
		r.Metric = &m
	}
	return r, nil
}

func recordArgs(r DailyRecord) []any {
	args := []any{r.Date.Format(calendar.DateLayout)}
	for _, d := range r.Durations {
		if d == nil {
			args = append(args, nil)
			continue
		}
		args = append(args, int64(*d/time.Second))
	}
	if r.Metric == nil {
		args = append(args, nil)
	} else {
		args = append(args, *r.Metric)
	}
	return args
}

// FetchRecords returns persisted days in [from, to], ascending by date.
// Gaps are not filled.
func (s *Store) FetchRecords(from, to time.Time) ([]DailyRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+dayColumns+` FROM days WHERE date BETWEEN ? AND ? ORDER BY date`,
		from.Format(calendar.DateLayout), to.Format(calendar.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return scanRecords(rows)
}

// ListRecords returns every persisted day, ascending by date.
func (s *Store) ListRecords() ([]DailyRecord, error) {
	rows, err := s.db.Query(`SELECT ` + dayColumns + ` FROM days ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]DailyRecord, error) {
	defer rows.Close()

	var records []DailyRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) GetRecord(date time.Time) (*DailyRecord, error) {
	r, err := scanRecord(s.db.QueryRow(
		`SELECT `+dayColumns+` FROM days WHERE date = ?`, date.Format(calendar.DateLayout),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %s: %w", date.Format(calendar.DateLayout), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", date.Format(calendar.DateLayout), err)
	}
	return &r, nil
}

const upsertDay = `INSERT INTO days (` + dayColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(date) DO UPDATE SET
		ds = excluded.ds, dev = excluded.dev, pol = excluded.pol, ge = excluded.ge,
		crt = excluded.crt, hs = excluded.hs, alk = excluded.alk`

// UpsertRecord inserts the day or replaces every field of the existing row.
func (s *Store) UpsertRecord(r DailyRecord) error {
	if _, err := s.db.Exec(upsertDay, recordArgs(r)...); err != nil {
		return fmt.Errorf("upsert record %s: %w", r.Date.Format(calendar.DateLayout), err)
	}
	return nil
}

// UpsertRecords writes all records in one transaction.
func (s *Store) UpsertRecords(records []DailyRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertDay)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(recordArgs(r)...); err != nil {
			return fmt.Errorf("upsert record %s: %w", r.Date.Format(calendar.DateLayout), err)
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteRecord(date time.Time) error {
	_, err := s.db.Exec(`DELETE FROM days WHERE date = ?`, date.Format(calendar.DateLayout))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// EnsureMonth persists an empty row for every day of ref's month that has
// none yet and returns how many rows were added.
func (s *Store) EnsureMonth(ref time.Time) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin ensure month: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, d := range calendar.MonthDates(ref) {
		res, err := tx.Exec(`INSERT OR IGNORE INTO days (date) VALUES (?)`, d.Format(calendar.DateLayout))
		if err != nil {
			return 0, fmt.Errorf("ensure day %s: %w", d.Format(calendar.DateLayout), err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ensure month: %w", err)
	}
	return added, nil
}
