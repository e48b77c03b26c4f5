// Package journal keeps a local history of completed runs. It records
// terminal outcomes only; poll state is never persisted, and a crash mid-run
// simply leaves no row.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seyi-falode/blogpilot/constants"
)

// Run is one journal row.
type Run struct {
	ID         string
	Keyword    string
	Status     constants.RunStatus
	DocURL     string
	Score      float64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is the journal the pipeline records into.
type Store interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, n int) ([]Run, error)
	Close() error
}

type sqliteStore struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	keyword     TEXT NOT NULL,
	status      TEXT NOT NULL,
	doc_url     TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);`

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	logger.Debug("journal.opened", "path", path)
	return &sqliteStore{db: db, log: logger}, nil
}

func (s *sqliteStore) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, keyword, status, doc_url, score, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Keyword, string(run.Status), run.DocURL, run.Score, run.Error,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		s.log.Error("journal.record_failed", "run_id", run.ID, "error", err)
		return fmt.Errorf("record run: %w", err)
	}
	s.log.Info("journal.recorded", "run_id", run.ID, "keyword", run.Keyword, "status", run.Status)
	return nil
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword, status, doc_url, score, error, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log.Warn("journal.rows_close_error", "error", cerr)
		}
	}()

	var out []Run
	for rows.Next() {
		var r Run
		var status string
		if err := rows.Scan(&r.ID, &r.Keyword, &status, &r.DocURL, &r.Score, &r.Error,
			&r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = constants.RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
