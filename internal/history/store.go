// Package history persists campaign run records: one row per run plus one
// row per dispatched contact outcome, queryable from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
	"github.com/Kuruzyy/excelwablaster/internal/metrics"
)

// Store is the SQLite-backed run history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create history directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open history database: %w", err)
	}

	// Single connection: SQLite handles one writer at a time anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		workbook    TEXT NOT NULL,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME,
		sent        INTEGER DEFAULT 0,
		invalid     INTEGER DEFAULT 0,
		retried     INTEGER DEFAULT 0,
		skipped     INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS dispatches (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		phone      TEXT NOT NULL,
		pass       INTEGER NOT NULL,
		status     INTEGER NOT NULL,
		detail     TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_dispatches_run ON dispatches(run_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartRun records the beginning of a campaign and returns its run ID.
func (s *Store) StartRun(ctx context.Context, workbook string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, workbook, started_at) VALUES (?, ?, ?)`,
		id, workbook, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// RecordDispatch appends one contact outcome to a run.
func (s *Store) RecordDispatch(ctx context.Context, runID, phone string, pass int, st domain.Status, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (run_id, phone, pass, status, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, phone, pass, int(st), detail,
	)
	return err
}

// FinishRun stamps the end of a run with its final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, sum metrics.Summary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at=?, sent=?, invalid=?, retried=?, skipped=? WHERE id=?`,
		time.Now(), sum.Sent, sum.Invalid, sum.Retried, sum.Skipped, runID,
	)
	return err
}

// Run is one row of the runs table.
type Run struct {
	ID         string
	Workbook   string
	StartedAt  time.Time
	FinishedAt *time.Time
	Sent       int64
	Invalid    int64
	Retried    int64
	Skipped    int64
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workbook, started_at, finished_at, sent, invalid, retried, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Workbook, &r.StartedAt, &r.FinishedAt,
			&r.Sent, &r.Invalid, &r.Retried, &r.Skipped); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Recorder adapts a Store to the dispatch engine's OutcomeRecorder for one
// run. Write failures are logged, never surfaced into the dispatch loop.
type Recorder struct {
	Store  *Store
	RunID  string
	Logger *slog.Logger
}

func (r *Recorder) RecordOutcome(phone string, pass int, st domain.Status, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Store.RecordDispatch(ctx, r.RunID, phone, pass, st, detail); err != nil {
		r.Logger.Warn("history write failed", "phone", phone, "err", err)
	}
}
