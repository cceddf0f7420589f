// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookmark-vault/internal/notes"
	"github.com/pdiddy/bookmark-vault/pkg/types"
)

type fakeAnalyzer struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, rec types.RawRecord) (types.CategorizedRecord, error) {
	f.calls = append(f.calls, rec.ID)
	if f.fail[rec.ID] {
		return types.CategorizedRecord{}, &types.AnalysisError{ID: rec.ID, Raw: "nope", Err: errors.New("bad output")}
	}
	return types.CategorizedRecord{Raw: rec, Category: types.CategoryLink, Title: "t-" + rec.ID}, nil
}

type fakeWriter struct {
	existing  map[string]bool
	sentinel  map[string]bool
	failWrite map[string]bool
	written   []types.CategorizedRecord
}

func (f *fakeWriter) IsDuplicate(id string) (bool, error) {
	return f.existing[id], nil
}

func (f *fakeWriter) Write(_ context.Context, rec types.CategorizedRecord) (types.Note, error) {
	id := rec.Raw.ID
	if f.failWrite[id] {
		return types.Note{}, &types.WriteError{ID: id, Err: errors.New("disk full")}
	}
	if f.sentinel[id] {
		return types.Note{}, nil
	}
	f.written = append(f.written, rec)
	return types.Note{Path: "Bookmarks/" + id + ".md"}, nil
}

type fakeExpander struct{ calls int }

func (f *fakeExpander) Expand(_ context.Context, rec types.CategorizedRecord) types.CategorizedRecord {
	f.calls++
	rec.ExtractedContent = "expanded"
	return rec
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	an := &fakeAnalyzer{fail: map[string]bool{"B": true}}
	wr := &fakeWriter{failWrite: map[string]bool{"D": true}}
	p := NewProcessor(an, wr, nil, zerolog.Nop())

	recs := []types.RawRecord{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}
	results := p.ProcessBatch(context.Background(), recs)
	require.Len(t, results, 4)

	assert.Equal(t, types.ItemResult{ID: "A", Success: true, Path: "Bookmarks/A.md"}, results[0])
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "bad output")
	assert.True(t, results[2].Success)
	assert.False(t, results[3].Success)
	assert.Contains(t, results[3].Error, "disk full")

	assert.Equal(t, []string{"A", "B", "C", "D"}, an.calls)
}

func TestProcessBatchDuplicateSkipsAnalysis(t *testing.T) {
	an := &fakeAnalyzer{}
	wr := &fakeWriter{existing: map[string]bool{"A": true}, sentinel: map[string]bool{"B": true}}
	p := NewProcessor(an, wr, nil, zerolog.Nop())

	results := p.ProcessBatch(context.Background(), []types.RawRecord{{ID: "A"}, {ID: "B"}})
	assert.Equal(t, types.ItemResult{ID: "A", Success: true, Duplicate: true}, results[0])
	assert.Equal(t, types.ItemResult{ID: "B", Success: true, Duplicate: true}, results[1])
	assert.Equal(t, []string{"B"}, an.calls)
}

func TestProcessBatchExpands(t *testing.T) {
	wr := &fakeWriter{}
	ex := &fakeExpander{}
	p := NewProcessor(&fakeAnalyzer{}, wr, ex, zerolog.Nop())

	p.ProcessBatch(context.Background(), []types.RawRecord{{ID: "A"}})
	require.Len(t, wr.written, 1)
	assert.Equal(t, "expanded", wr.written[0].ExtractedContent)
	assert.Equal(t, 1, ex.calls)
}

func TestProcessBatchEmpty(t *testing.T) {
	p := NewProcessor(&fakeAnalyzer{}, &fakeWriter{}, nil, zerolog.Nop())
	assert.Empty(t, p.ProcessBatch(context.Background(), nil))
}

func TestProcessBatchSlugCollisionIsNotSaved(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Bookmarks")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// The analyzer titles post A "t-A", whose slug is already taken.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t-a.md"),
		[]byte("---\ntweet_id: \"other\"\n---\n"), 0o644))

	wr := notes.NewWriter(types.VaultConfig{Root: root, Folder: "Bookmarks"}, false, zerolog.Nop())
	p := NewProcessor(&fakeAnalyzer{}, wr, nil, zerolog.Nop())

	results := p.ProcessBatch(context.Background(), []types.RawRecord{{ID: "A", AuthorHandle: "a"}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success, "a post without its own note must not be reported saved")
	assert.False(t, results[0].Duplicate)
	assert.Contains(t, results[0].Error, "slug already used")
}
