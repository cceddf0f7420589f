// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expand fetches the article behind a link post and attaches a
// markdown rendering of it to the categorized record.
package expand

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/internal/httputil"
	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	defaultMaxChars  = 4000
	maxBodyBytes     = 5 << 20
	defaultUserAgent = "bookmark-vault/1.0 (+link expansion)"
	defaultTimeout   = 30 * time.Second
)

// Expander fetches linked articles. The zero value is not usable; call New.
type Expander struct {
	client    *http.Client
	userAgent string
	converter *md.Converter
	log       zerolog.Logger
	maxChars  int
}

// New returns an Expander using the shared HTTP settings.
func New(cfg types.HTTPConfig, log zerolog.Logger) *Expander {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Expander{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		converter: md.NewConverter("", true, nil),
		log:       log.With().Str("component", "expand").Logger(),
		maxChars:  defaultMaxChars,
	}
}

// Expand returns rec with ExtractedContent filled from its first link when
// rec is a link post. Failures are logged and rec is returned unchanged.
func (e *Expander) Expand(ctx context.Context, rec types.CategorizedRecord) types.CategorizedRecord {
	if rec.Category != types.CategoryLink || len(rec.Raw.Links) == 0 {
		return rec
	}
	target := rec.Raw.Links[0].URL

	content, err := e.fetch(ctx, target)
	if err != nil {
		e.log.Warn().Str("id", rec.Raw.ID).Str("url", target).Err(err).Msg("link expansion failed")
		return rec
	}
	rec.ExtractedContent = content
	e.log.Debug().Str("id", rec.Raw.ID).Str("url", target).Int("chars", utf8.RuneCountInString(content)).Msg("link expanded")
	return rec
}

func (e *Expander) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(e.log.WithContext(ctx), e.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", target, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("unsupported content type %q", ct)
	}

	// Redirects (t.co) change the base URL for relative links.
	base := resp.Request.URL
	if base == nil {
		base, _ = url.Parse(target)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), base)
	if err != nil {
		return "", fmt.Errorf("extracting article: %w", err)
	}

	var text string
	if article.Content != "" {
		text, err = e.converter.ConvertString(article.Content)
		if err != nil {
			e.log.Debug().Str("url", target).Err(err).Msg("markdown conversion failed, using text content")
			text = article.TextContent
		}
	} else {
		text = article.TextContent
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no readable content")
	}
	if article.Title != "" {
		text = "### " + strings.TrimSpace(article.Title) + "\n\n" + text
	}
	return truncate(text, e.maxChars), nil
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	return strings.TrimSpace(string(r)) + "…"
}
