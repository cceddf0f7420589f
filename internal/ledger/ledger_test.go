// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

func openTest(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestObservePersistsPhaseChanges(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s := types.ProcessState{RunID: "r1", Phase: types.PhaseScraping, IsProcessing: true, StartedAt: start}
	l.Observe(s)

	runs, err := l.Recent(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.PhaseScraping, runs[0].Phase)
	assert.True(t, runs[0].IsProcessing)

	s.Phase = types.PhaseComplete
	s.IsProcessing = false
	s.Total, s.Processed, s.Succeeded, s.Failed = 3, 3, 2, 1
	s.RemovalSucceeded = 2
	s.FinishedAt = start.Add(time.Minute)
	l.Observe(s)

	runs, err = l.Recent(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, types.PhaseComplete, r.Phase)
	assert.False(t, r.IsProcessing)
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 2, r.RemovalSucceeded)
	assert.True(t, r.StartedAt.Equal(start))
	assert.True(t, r.FinishedAt.Equal(start.Add(time.Minute)))
}

func TestRecordItemsJoinsRemovals(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()

	require.NoError(t, l.SaveRun(ctx, types.ProcessState{RunID: "r1", Phase: types.PhaseComplete, StartedAt: time.Now()}))
	require.NoError(t, l.RecordItems(ctx, "r1",
		[]types.ItemResult{
			{ID: "A", Success: true, Path: "Bookmarks/a.md"},
			{ID: "B", Error: "analysis failed"},
			{ID: "C", Success: true, Duplicate: true},
		},
		[]types.RemovalResult{
			{ID: "A", Status: types.RemovalRemoved},
			{ID: "C", Status: types.RemovalAlreadyRemoved},
		}))

	items, err := l.Items(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, Item{PostID: "A", Success: true, Path: "Bookmarks/a.md", RemovalStatus: types.RemovalRemoved}, items[0])
	assert.Equal(t, Item{PostID: "B", Error: "analysis failed"}, items[1])
	assert.Equal(t, Item{PostID: "C", Success: true, Duplicate: true, RemovalStatus: types.RemovalAlreadyRemoved}, items[2])
}

func TestRecentOrderAndLimit(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, l.SaveRun(ctx, types.ProcessState{
			RunID: id, Phase: types.PhaseComplete, StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, l.RecordItems(ctx, "new", []types.ItemResult{{ID: "X", Success: true}}, nil))

	runs, err := l.Recent(ctx, 2, true)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)
	assert.Len(t, runs[0].Items, 1)
	assert.Empty(t, runs[1].Items)
}

func TestReopenKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, l.SaveRun(context.Background(), types.ProcessState{RunID: "r1", Phase: types.PhaseError, Error: "boom", StartedAt: time.Now()}))
	require.NoError(t, l.Close())

	l, err = Open(dir, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.Recent(context.Background(), 0, false)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "boom", runs[0].Error)
}
