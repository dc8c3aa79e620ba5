package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	years       TEXT NOT NULL,
	polygons    INTEGER NOT NULL,
	row_count   INTEGER NOT NULL,
	output      TEXT,
	status      TEXT NOT NULL,
	error       TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordRun inserts a completed or failed run. A missing ID or timestamp is
// filled in.
func (s *SQLiteStore) RecordRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, years, polygons, row_count, output, status, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Years, rec.Polygons, rec.Rows, rec.Output,
		string(rec.Status), rec.Error, rec.DurationMs, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, years, polygons, row_count, COALESCE(output, ''), status, COALESCE(error, ''), duration_ms, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.Years, &rec.Polygons, &rec.Rows, &rec.Output, &status, &rec.Error, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run row")
		}
		rec.Status = RunStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
