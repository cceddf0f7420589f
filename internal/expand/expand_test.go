// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Go Concurrency Patterns</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Go Concurrency Patterns</h1>
<p>Channels are the pipes that connect concurrent goroutines. You can send values into channels from one goroutine and receive those values into another goroutine.</p>
<p>Select lets a goroutine wait on multiple communication operations. A select blocks until one of its cases can run, then it executes that case.</p>
<p>Worker pools bound the amount of concurrent work and make back pressure explicit in the program structure, which keeps memory use predictable.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func linkRecord(u string) types.CategorizedRecord {
	return types.CategorizedRecord{
		Raw: types.RawRecord{
			ID:    "7",
			Links: []types.Link{{URL: u, Text: "article"}},
		},
		Category: types.CategoryLink,
	}
}

func TestExpandLinkPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	e := New(types.HTTPConfig{UserAgent: "test-agent"}, zerolog.Nop())
	got := e.Expand(context.Background(), linkRecord(srv.URL+"/post"))

	assert.Contains(t, got.ExtractedContent, "Channels are the pipes")
	assert.Contains(t, got.ExtractedContent, "Worker pools")
	assert.NotContains(t, got.ExtractedContent, "<p>")
}

func TestExpandSkipsNonLinkCategories(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	rec := linkRecord(srv.URL)
	rec.Category = types.CategoryStandalone

	got := New(types.HTTPConfig{}, zerolog.Nop()).Expand(context.Background(), rec)
	assert.Empty(t, got.ExtractedContent)
	assert.Equal(t, 0, calls)
}

func TestExpandFailureLeavesRecordUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	rec := linkRecord(srv.URL)
	got := New(types.HTTPConfig{}, zerolog.Nop()).Expand(context.Background(), rec)
	assert.Equal(t, rec, got)
}

func TestExpandRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer srv.Close()

	got := New(types.HTTPConfig{}, zerolog.Nop()).Expand(context.Background(), linkRecord(srv.URL))
	assert.Empty(t, got.ExtractedContent)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate(strings.Repeat("é", 20), 5)
	assert.Equal(t, strings.Repeat("é", 5)+"…", got)
}
