package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/sadopc/mymonth/internal/logger"
)

const currentVersion = 1

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Debug("store opened", "path", dbPath)
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
		logger.Info("applied migration", "version", 1)
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	// Durations are stored as whole seconds; NULL means "not recorded".
	const ddl = `
	CREATE TABLE IF NOT EXISTS days (
		date  TEXT PRIMARY KEY,
		ds    INTEGER,
		dev   INTEGER,
		pol   INTEGER,
		ge    INTEGER,
		crt   INTEGER,
		hs    INTEGER,
		alk   REAL
	);

	CREATE TABLE IF NOT EXISTS monthly_targets (
		month  TEXT PRIMARY KEY,
		ds     INTEGER NOT NULL DEFAULT 0,
		dev    INTEGER NOT NULL DEFAULT 0,
		pol    INTEGER NOT NULL DEFAULT 0,
		ge     INTEGER NOT NULL DEFAULT 0,
		crt    INTEGER NOT NULL DEFAULT 0,
		hs     INTEGER NOT NULL DEFAULT 0,
		alk    REAL NOT NULL DEFAULT 0,
		days0  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('target_mon',        '2h'),
		('target_tue',        '2h'),
		('target_wed',        '2h'),
		('target_thu',        '2h'),
		('target_fri',        '2h'),
		('target_sat',        '4h'),
		('target_sun',        '4h'),
		('penalty_threshold', '2.86'),
		('penalty_unit',      '20m'),
		('metric_unit',       '7.8'),
		('metric_display',    '750');
	`
	_, err := s.db.Exec(ddl)
	return err
}
