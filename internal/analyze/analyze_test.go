// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// --- mock generators ---

type mockGenerator struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

// failNTimesGenerator fails the first N calls, then succeeds.
type failNTimesGenerator struct {
	failures int
	calls    []time.Time
	reply    string
}

func (f *failNTimesGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, time.Now())
	if len(f.calls) <= f.failures {
		return "", fmt.Errorf("transient error (call %d)", len(f.calls))
	}
	return f.reply, nil
}

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

func testRecord() types.RawRecord {
	return types.RawRecord{
		ID:           "1",
		URL:          "https://x.com/a/status/1",
		AuthorHandle: "a",
		AuthorName:   "A",
		Text:         "hello world",
		Timestamp:    "2024-01-01T00:00:00.000Z",
	}
}

func testAnalyzer(gen Generator) *Analyzer {
	return New(gen, types.AIConfig{}, zerolog.Nop())
}

// --- Analyze ---

func TestAnalyze(t *testing.T) {
	gen := &mockGenerator{reply: `{"category":"standalone","suggestedPath":"","tags":["Greeting"]}`}
	got, err := testAnalyzer(gen).Analyze(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, types.CategoryStandalone, got.Category)
	assert.Equal(t, "", got.SuggestedPath)
	assert.Equal(t, []string{"Greeting"}, got.Tags)
	assert.Equal(t, "hello world", got.Title)
	assert.Equal(t, "1", got.Raw.ID)
	assert.Equal(t, 1, gen.calls)
}

func TestAnalyzeRejectsUnknownCategory(t *testing.T) {
	raw := `{"category":"poll","suggestedPath":"","tags":[]}`
	gen := &mockGenerator{reply: raw}
	_, err := testAnalyzer(gen).Analyze(context.Background(), testRecord())
	require.Error(t, err)

	var aerr *types.AnalysisError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "1", aerr.ID)
	assert.Equal(t, raw, aerr.Raw)
	assert.ErrorIs(t, err, errInvalidOutput)
	// Parse failures are not retried.
	assert.Equal(t, 1, gen.calls)
}

func TestAnalyzeRetriesTransientFailures(t *testing.T) {
	gen := &failNTimesGenerator{
		failures: 2,
		reply:    `{"category":"link","suggestedPath":"Tools","tags":["Go"]}`,
	}
	start := time.Now()
	got, err := testAnalyzer(gen).Analyze(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, types.CategoryLink, got.Category)

	require.Len(t, gen.calls, 3)
	// Backoff is 1x then 2x the base.
	assert.GreaterOrEqual(t, gen.calls[1].Sub(gen.calls[0]), backoffBase)
	assert.GreaterOrEqual(t, gen.calls[2].Sub(gen.calls[1]), 2*backoffBase)
	assert.GreaterOrEqual(t, time.Since(start), 3*backoffBase)
}

func TestAnalyzeRetryExhaustion(t *testing.T) {
	gen := &mockGenerator{err: errors.New("connection refused")}
	_, err := testAnalyzer(gen).Analyze(context.Background(), testRecord())
	require.Error(t, err)
	assert.True(t, types.IsAnalysis(err))
	assert.Equal(t, 1+defaultMaxRetries, gen.calls)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAnalyzeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &mockGenerator{err: context.Canceled}
	_, err := testAnalyzer(gen).Analyze(ctx, testRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
}

// --- callWithRetry ---

func TestCallWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
	}{
		{"succeeds first try", 0, 3, false},
		{"succeeds after 2 failures", 2, 3, false},
		{"fails after exhausting retries", 4, 3, true},
		{"succeeds on last retry", 3, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &failNTimesGenerator{failures: tt.failures, reply: "ok"}
			a := New(gen, types.AIConfig{MaxRetries: &tt.maxRetries}, zerolog.Nop())

			_, err := a.callWithRetry(context.Background(), "prompt")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnalyzeZeroRetriesDisablesRetry(t *testing.T) {
	zero := 0
	gen := &failNTimesGenerator{failures: 1, reply: `{"category":"link","suggestedPath":"","tags":[]}`}
	a := New(gen, types.AIConfig{MaxRetries: &zero}, zerolog.Nop())

	_, err := a.Analyze(context.Background(), testRecord())
	require.Error(t, err)
	assert.Len(t, gen.calls, 1)
}

func TestNewMaxRetriesDefault(t *testing.T) {
	assert.Equal(t, defaultMaxRetries, New(&mockGenerator{}, types.AIConfig{}, zerolog.Nop()).maxRetries)

	negative := -1
	assert.Equal(t, defaultMaxRetries, New(&mockGenerator{}, types.AIConfig{MaxRetries: &negative}, zerolog.Nop()).maxRetries)
}

// --- parseResponse ---

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    types.Category
		wantErr string
	}{
		{"plain", `{"category":"thread","suggestedPath":"","tags":[]}`, types.CategoryThread, ""},
		{"fenced", "```json\n{\"category\":\"image\",\"suggestedPath\":\"Art\",\"tags\":[\"Design\"]}\n```", types.CategoryImage, ""},
		{"bare fence", "```\n{\"category\":\"quote\",\"suggestedPath\":\"\",\"tags\":[]}\n```", types.CategoryQuote, ""},
		{"with summary", `{"category":"link","suggestedPath":"","tags":[],"summary":"x"}`, types.CategoryLink, ""},
		{"unknown field", `{"category":"link","suggestedPath":"","tags":[],"confidence":0.9}`, "", "unknown field"},
		{"missing tags", `{"category":"link","suggestedPath":""}`, "", "missing tags"},
		{"missing all", `{}`, "", "missing category, suggestedPath, tags"},
		{"bad enum", `{"category":"Thread","suggestedPath":"","tags":[]}`, "", "unknown category"},
		{"prose", `Sure! Here is the answer.`, "", "invalid model output"},
		{"trailing", `{"category":"link","suggestedPath":"","tags":[]} {"x":1}`, "", "trailing content"},
		{"empty", ``, "", "invalid model output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"Go", "AI"}, normalizeTags([]string{" Go ", "", "AI", "go"}))
	assert.Empty(t, normalizeTags(nil))
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "hello world", deriveTitle("\n  hello world  \nsecond line"))
	assert.Equal(t, "", deriveTitle("   \n"))

	long := strings.Repeat("word ", 30)
	got := deriveTitle(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), maxTitleLen+1)
	assert.NotContains(t, got, "wor…")
}

// --- prompt ---

func TestRenderPrompt(t *testing.T) {
	rec := testRecord()
	rec.Media = []types.Media{{Kind: types.MediaImage, URL: "https://img/1"}, {Kind: types.MediaVideo, URL: "https://v/1"}}
	rec.Links = []types.Link{{URL: "https://example.com", Text: "ex"}}
	rec.Quoted = &types.QuotedRecord{ID: "2", AuthorHandle: "b"}

	p1, err := renderPrompt(rec)
	require.NoError(t, err)
	p2, err := renderPrompt(rec)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	assert.Contains(t, p1, "@a (A)")
	assert.Contains(t, p1, "hello world")
	assert.Contains(t, p1, "Has media: true (image, video)")
	assert.Contains(t, p1, "Has links: true")
	assert.Contains(t, p1, "Quotes a post by: @b")
	for _, c := range types.Categories() {
		assert.Contains(t, p1, `"`+string(c)+`"`)
	}
}

// --- Claude backend ---

func TestClaudeGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"{\"category\":\"standalone\",\"suggestedPath\":\"\",\"tags\":[]}"}]}`)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	gen := &ClaudeGenerator{APIKey: "test-key", Client: srv.Client()}
	got, err := testAnalyzer(gen).Analyze(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, types.CategoryStandalone, got.Category)
}

func TestClaudeGeneratorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	gen := &ClaudeGenerator{APIKey: "k", Client: srv.Client()}
	_, err := gen.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(ctx, types.AIConfig{Provider: types.ProviderClaude})
	assert.Error(t, err, "missing key")

	gen, err := NewGenerator(ctx, types.AIConfig{Provider: types.ProviderClaude, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeGenerator{}, gen)

	gen, err = NewGenerator(ctx, types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, gen)

	_, err = NewGenerator(ctx, types.AIConfig{Provider: "mistral", APIKey: "k"})
	assert.Error(t, err)
}
