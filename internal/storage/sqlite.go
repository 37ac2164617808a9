//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "slotwatch/pkg/logx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checks (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	app       TEXT    NOT NULL,
	available INTEGER NOT NULL,
	at        TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checks_at ON checks(at);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendCheck(ctx context.Context, rec CheckRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checks(app, available, at) VALUES(?,?,?)`,
		rec.App, boolInt(rec.Available), rec.At.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) RecentChecks(ctx context.Context, since time.Time) ([]CheckRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT app, available, at FROM checks WHERE at >= ? ORDER BY at ASC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckRecord
	for rows.Next() {
		var (
			rec   CheckRecord
			avail int
			at    string
		)
		if err := rows.Scan(&rec.App, &avail, &at); err != nil {
			return out, err
		}
		rec.Available = avail != 0
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			s.log.Debug("skipping malformed check timestamp", logx.String("at", at))
			continue
		}
		rec.At = t
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
