// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// Run is one row of run history with its items.
type Run struct {
	types.ProcessState `yaml:",inline"`
	Items              []Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// Item is the stored outcome of one post in a run.
type Item struct {
	PostID        string              `json:"post_id" yaml:"post_id"`
	Success       bool                `json:"success" yaml:"success"`
	Duplicate     bool                `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
	Path          string              `json:"path,omitempty" yaml:"path,omitempty"`
	Error         string              `json:"error,omitempty" yaml:"error,omitempty"`
	RemovalStatus types.RemovalStatus `json:"removal_status,omitempty" yaml:"removal_status,omitempty"`
}

// Recent returns the most recent runs, newest first. withItems loads the
// per-item detail of each run.
func (l *Ledger) Recent(ctx context.Context, limit int, withItems bool) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, phase, total, processed, succeeded, failed,
			removal_succeeded, removal_failed, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, phase    string
			finished, errText sql.NullString
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &phase, &r.Total, &r.Processed,
			&r.Succeeded, &r.Failed, &r.RemovalSucceeded, &r.RemovalFailed, &errText); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Phase = types.Phase(phase)
		r.Error = errText.String
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timeLayout, finished.String)
		}
		r.IsProcessing = !r.Phase.Terminal()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if withItems {
		for i := range runs {
			items, err := l.Items(ctx, runs[i].RunID)
			if err != nil {
				return nil, err
			}
			runs[i].Items = items
		}
	}
	return runs, nil
}

// Items returns the stored items of one run in post id order.
func (l *Ledger) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT post_id, success, duplicate, path, error, removal_status
		FROM run_items WHERE run_id = ? ORDER BY post_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying items of %s: %w", runID, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it                    Item
			path, errText, status sql.NullString
		)
		if err := rows.Scan(&it.PostID, &it.Success, &it.Duplicate, &path, &errText, &status); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.Path = path.String
		it.Error = errText.String
		it.RemovalStatus = types.RemovalStatus(status.String)
		items = append(items, it)
	}
	return items, rows.Err()
}
