// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notes writes categorized records to the vault as markdown notes
// with YAML frontmatter. A Writer owns a dedup cache keyed by post identity;
// the cache is hydrated lazily from the frontmatter of notes already on disk,
// so a fresh process recognizes posts written by an earlier one.
package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	noteExt          = ".md"
	frontmatterDelim = "---"
)

// ErrSlugCollision is wrapped in the WriteError returned when the target
// path already holds a note for a different identity.
var ErrSlugCollision = errors.New("slug already used by another note")

// Writer persists notes under <root>/<folder>. It is safe for concurrent use.
type Writer struct {
	root   string
	folder string
	media  bool
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	hydrated bool
	seen     *gocache.Cache
}

// NewWriter returns a Writer for the given vault layout. The media flag
// controls whether the ## Media section is rendered.
func NewWriter(vault types.VaultConfig, media bool, log zerolog.Logger) *Writer {
	folder := vault.Folder
	if folder == "" {
		folder = "Bookmarks"
	}
	return &Writer{
		root:   vault.Root,
		folder: folder,
		media:  media,
		log:    log.With().Str("component", "notes").Logger(),
		now:    time.Now,
		seen:   gocache.New(gocache.NoExpiration, 0),
	}
}

// Dir returns the absolute-or-relative folder notes are written to.
func (w *Writer) Dir() string {
	return filepath.Join(w.root, w.folder)
}

// IsDuplicate reports whether a note for id already exists, hydrating the
// cache from disk on first use.
func (w *Writer) IsDuplicate(id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.hydrateLocked(); err != nil {
		return false, err
	}
	_, ok := w.seen.Get(id)
	return ok, nil
}

// Write persists rec as a note. When the identity is already known, or a
// note for the same identity already occupies the target path, it returns an
// empty Note and a nil error. A path owned by another note fails with
// ErrSlugCollision. Failures are *types.WriteError and leave the cache
// unchanged.
func (w *Writer) Write(_ context.Context, rec types.CategorizedRecord) (types.Note, error) {
	id := rec.Raw.ID

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.hydrateLocked(); err != nil {
		return types.Note{}, &types.WriteError{ID: id, Err: err}
	}
	if _, ok := w.seen.Get(id); ok {
		w.log.Debug().Str("id", id).Msg("duplicate, skipping write")
		return types.Note{}, nil
	}

	name := noteSlug(rec) + noteExt
	rel := filepath.ToSlash(filepath.Join(w.folder, name))
	abs := filepath.Join(w.Dir(), name)

	if _, err := os.Stat(abs); err == nil {
		existing, _ := readNoteID(abs)
		if existing == id {
			// Disk and cache diverged; the file on disk wins.
			w.seen.SetDefault(id, rel)
			w.log.Info().Str("id", id).Str("path", rel).Msg("note already on disk, treating as duplicate")
			return types.Note{}, nil
		}
		// Another post (or a hand-written note) owns the slug. Nothing is
		// written and the id stays uncached, so its bookmark is kept.
		w.log.Warn().Str("id", id).Str("path", rel).Str("owner", existing).Msg("slug collision, note not written")
		return types.Note{}, &types.WriteError{ID: id, Path: rel, Err: ErrSlugCollision}
	}

	if err := os.MkdirAll(w.Dir(), 0o755); err != nil {
		return types.Note{}, &types.WriteError{ID: id, Path: rel, Err: fmt.Errorf("creating folder: %w", err)}
	}

	note := types.Note{
		Path:        rel,
		Frontmatter: buildFrontmatter(rec, w.now()),
		Body:        renderBody(rec, w.media),
	}
	data, err := renderNote(note)
	if err != nil {
		return types.Note{}, &types.WriteError{ID: id, Path: rel, Err: err}
	}

	if err := writeAtomic(abs, data); err != nil {
		return types.Note{}, &types.WriteError{ID: id, Path: rel, Err: err}
	}

	w.seen.SetDefault(id, rel)
	w.log.Info().Str("id", id).Str("path", rel).Str("category", string(rec.Category)).Msg("note written")
	return note, nil
}

// hydrateLocked scans the notes folder once and records every tweet_id
// found in frontmatter. A failed scan is retried on the next call.
func (w *Writer) hydrateLocked() error {
	if w.hydrated {
		return nil
	}

	entries, err := os.ReadDir(w.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			w.hydrated = true
			return nil
		}
		return fmt.Errorf("scanning notes folder: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != noteExt {
			continue
		}
		path := filepath.Join(w.Dir(), e.Name())
		id, err := readNoteID(path)
		if err != nil {
			w.log.Warn().Str("file", e.Name()).Err(err).Msg("skipping unreadable note")
			continue
		}
		if id == "" {
			continue
		}
		w.seen.SetDefault(id, filepath.ToSlash(filepath.Join(w.folder, e.Name())))
		count++
	}

	w.hydrated = true
	w.log.Debug().Int("notes", count).Str("dir", w.Dir()).Msg("dedup cache hydrated")
	return nil
}

// noteIdentity is the only frontmatter field dedup depends on. Decoding it
// alone keeps hand-edited notes with unexpected field shapes recognizable.
type noteIdentity struct {
	TweetID string `yaml:"tweet_id"`
}

// readNoteID returns the tweet_id from the YAML block between the leading
// --- lines, or "" when the note has none.
func readNoteID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	block, ok := splitFrontmatter(data)
	if !ok {
		return "", fmt.Errorf("no frontmatter")
	}
	var ident noteIdentity
	if err := yaml.Unmarshal(block, &ident); err != nil {
		return "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return strings.TrimSpace(ident.TweetID), nil
}

func splitFrontmatter(data []byte) ([]byte, bool) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, frontmatterDelim+"\n") {
		return nil, false
	}
	rest := text[len(frontmatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return nil, false
	}
	return []byte(rest[:end+1]), true
}

// renderNote serializes the frontmatter and body into the on-disk format.
func renderNote(n types.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n.Frontmatter); err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}
	buf.WriteString(frontmatterDelim + "\n\n")
	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in the destination folder and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".note-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
