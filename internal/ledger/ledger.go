// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records orchestration runs in a SQLite database so the
// history of what was saved and removed survives the process.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	dbFile       = "ledger.db"
	defaultLimit = 20
	timeLayout   = time.RFC3339Nano
)

// Ledger manages the run history database.
type Ledger struct {
	db  *sql.DB
	log zerolog.Logger

	mu        sync.Mutex
	lastPhase map[string]types.Phase
}

// Open opens or creates stateDir/ledger.db and its schema.
func Open(stateDir string, log zerolog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Ledger{
		db:        db,
		log:       log.With().Str("component", "ledger").Logger(),
		lastPhase: make(map[string]types.Phase),
	}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			phase TEXT NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			removal_succeeded INTEGER NOT NULL DEFAULT 0,
			removal_failed INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_items (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			post_id TEXT NOT NULL,
			success INTEGER NOT NULL,
			duplicate INTEGER NOT NULL DEFAULT 0,
			path TEXT,
			error TEXT,
			removal_status TEXT,
			PRIMARY KEY (run_id, post_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_items_post_id ON run_items(post_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Observe persists the run row whenever the phase changes. It satisfies the
// orchestrator's Observer interface; failures are logged, not returned.
func (l *Ledger) Observe(s types.ProcessState) {
	l.mu.Lock()
	changed := l.lastPhase[s.RunID] != s.Phase
	l.lastPhase[s.RunID] = s.Phase
	if s.Phase.Terminal() {
		delete(l.lastPhase, s.RunID)
	}
	l.mu.Unlock()

	if !changed || s.RunID == "" {
		return
	}
	if err := l.SaveRun(context.Background(), s); err != nil {
		l.log.Error().Err(err).Str("run_id", s.RunID).Msg("saving run")
	}
}

// SaveRun inserts or replaces the run row for s.
func (l *Ledger) SaveRun(ctx context.Context, s types.ProcessState) error {
	var finished sql.NullString
	if !s.FinishedAt.IsZero() {
		finished = sql.NullString{String: s.FinishedAt.UTC().Format(timeLayout), Valid: true}
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, phase, total, processed, succeeded, failed,
			removal_succeeded, removal_failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			phase = excluded.phase,
			total = excluded.total,
			processed = excluded.processed,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			removal_succeeded = excluded.removal_succeeded,
			removal_failed = excluded.removal_failed,
			error = excluded.error`,
		s.RunID, s.StartedAt.UTC().Format(timeLayout), finished, string(s.Phase),
		s.Total, s.Processed, s.Succeeded, s.Failed,
		s.RemovalSucceeded, s.RemovalFailed, nullable(s.Error),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", s.RunID, err)
	}
	return nil
}

// RecordItems stores the per-item outcome of a run, joining each item with
// its removal result by id.
func (l *Ledger) RecordItems(ctx context.Context, runID string, items []types.ItemResult, removals []types.RemovalResult) error {
	if len(items) == 0 {
		return nil
	}
	removed := make(map[string]types.RemovalStatus, len(removals))
	for _, r := range removals {
		removed[r.ID] = r.Status
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO run_items (run_id, post_id, success, duplicate, path, error, removal_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, runID, it.ID, it.Success, it.Duplicate,
			nullable(it.Path), nullable(it.Error), nullable(string(removed[it.ID]))); err != nil {
			return fmt.Errorf("inserting item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
