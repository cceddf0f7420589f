// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze categorizes scraped posts with a text-generation model.
// The model is asked for a single JSON object; the response is validated
// strictly against the closed category set and rejected, not coerced, when
// it does not match.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	defaultMaxRetries = 2
	defaultTimeout    = 60 * time.Second
	maxTitleLen       = 80
)

// Generator abstracts the text-generation API so tests can supply a mock.
// Implementations send one prompt and return the raw text of the reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer turns RawRecords into CategorizedRecords.
type Analyzer struct {
	gen        Generator
	log        zerolog.Logger
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
}

// New returns an Analyzer that calls gen with the limits from cfg.
func New(gen Generator, cfg types.AIConfig, log zerolog.Logger) *Analyzer {
	a := &Analyzer{
		gen:        gen,
		log:        log.With().Str("component", "analyze").Logger(),
		timeout:    cfg.Timeout,
		maxRetries: defaultMaxRetries,
	}
	if a.timeout <= 0 {
		a.timeout = defaultTimeout
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		a.maxRetries = *cfg.MaxRetries
	}
	if cfg.RequestsPerMinute > 0 {
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return a
}

// Analyze builds the prompt for rec, calls the generator with retries, and
// validates the reply. Every failure is an *types.AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, rec types.RawRecord) (types.CategorizedRecord, error) {
	prompt, err := renderPrompt(rec)
	if err != nil {
		return types.CategorizedRecord{}, &types.AnalysisError{ID: rec.ID, Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	raw, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return types.CategorizedRecord{}, &types.AnalysisError{ID: rec.ID, Err: err}
	}

	resp, err := parseResponse(raw)
	if err != nil {
		a.log.Warn().Str("id", rec.ID).Err(err).Msg("rejected model output")
		return types.CategorizedRecord{}, &types.AnalysisError{ID: rec.ID, Raw: raw, Err: err}
	}

	out := types.CategorizedRecord{
		Raw:           rec,
		Category:      resp.Category,
		SuggestedPath: resp.SuggestedPath,
		Tags:          normalizeTags(resp.Tags),
		Title:         deriveTitle(rec.Text),
		Summary:       strings.TrimSpace(resp.Summary),
	}
	a.log.Debug().Str("id", rec.ID).Str("category", string(out.Category)).Strs("tags", out.Tags).Msg("analyzed")
	return out, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the generator, retrying transport failures with
// exponential backoff (1s, 2s, ...). Each attempt runs under its own timeout.
func (a *Analyzer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			a.log.Debug().Int("attempt", attempt+1).Dur("backoff", backoff).Err(lastErr).Msg("retrying generation")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := a.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("generation failed after %d retries: %w", a.maxRetries, lastErr)
}

func (a *Analyzer) generateOnce(ctx context.Context, prompt string) (string, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.gen.Generate(callCtx, prompt)
}

// modelResponse mirrors the JSON object the model must return. Pointer
// fields distinguish a missing field from an empty one.
type modelResponse struct {
	Category      *string   `json:"category"`
	SuggestedPath *string   `json:"suggestedPath"`
	Tags          *[]string `json:"tags"`
	Summary       *string   `json:"summary"`
}

// analysis is a validated model response.
type analysis struct {
	Category      types.Category
	SuggestedPath string
	Tags          []string
	Summary       string
}

// errInvalidOutput is wrapped by every structural rejection of model output.
var errInvalidOutput = errors.New("invalid model output")

// parseResponse decodes exactly one JSON object with the expected fields and
// a category from the closed set.
func parseResponse(raw string) (analysis, error) {
	body := stripFence(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var r modelResponse
	if err := dec.Decode(&r); err != nil {
		return analysis{}, fmt.Errorf("%w: %v", errInvalidOutput, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return analysis{}, fmt.Errorf("%w: trailing content after JSON object", errInvalidOutput)
	}

	var missing []string
	if r.Category == nil {
		missing = append(missing, "category")
	}
	if r.SuggestedPath == nil {
		missing = append(missing, "suggestedPath")
	}
	if r.Tags == nil {
		missing = append(missing, "tags")
	}
	if len(missing) > 0 {
		return analysis{}, fmt.Errorf("%w: missing %s", errInvalidOutput, strings.Join(missing, ", "))
	}

	cat := types.Category(*r.Category)
	if !cat.Valid() {
		return analysis{}, fmt.Errorf("%w: unknown category %q", errInvalidOutput, *r.Category)
	}

	out := analysis{
		Category:      cat,
		SuggestedPath: *r.SuggestedPath,
		Tags:          *r.Tags,
	}
	if r.Summary != nil {
		out.Summary = *r.Summary
	}
	return out, nil
}

// stripFence removes surrounding whitespace and a single markdown code fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return s
	}
	inner := strings.TrimSpace(s[nl+1:])
	if !strings.HasSuffix(inner, "```") {
		return s
	}
	return strings.TrimSpace(strings.TrimSuffix(inner, "```"))
}

// normalizeTags trims tags, drops empty ones, and removes repeats while
// keeping the model's order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// deriveTitle returns the first non-empty line of text, cut on a word
// boundary at maxTitleLen characters. Empty text yields an empty title.
func deriveTitle(text string) string {
	var line string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	if utf8.RuneCountInString(line) <= maxTitleLen {
		return line
	}
	runes := []rune(line)[:maxTitleLen]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > maxTitleLen/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
