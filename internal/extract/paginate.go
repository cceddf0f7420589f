// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"time"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// Viewport is the live bookmarks view. The browser package provides the
// production implementation; tests supply a fake.
type Viewport interface {
	// VisiblePosts returns the outer HTML of every post element currently
	// rendered.
	VisiblePosts(ctx context.Context) ([]string, error)

	// ScrollToBottom scrolls the view to the end of the rendered content.
	ScrollToBottom(ctx context.Context) error

	// PageHeight returns the current scrollable height in pixels.
	PageHeight(ctx context.Context) (int, error)
}

const (
	// stableRounds is the number of consecutive scrolls without height
	// growth that ends pagination.
	stableRounds = 3

	// maxRounds caps pagination regardless of height growth.
	maxRounds = 500

	viewportTarget = "bookmarks view"
)

// settleInterval is the wait after each scroll for new posts to render.
// Tests override this to avoid real sleeps.
var settleInterval = 2 * time.Second

// ScrapeVisible extracts the posts currently rendered, without scrolling.
func (e *Extractor) ScrapeVisible(ctx context.Context, vp Viewport) ([]types.RawRecord, error) {
	elements, err := vp.VisiblePosts(ctx)
	if err != nil {
		return nil, &types.TransportError{Target: viewportTarget, Err: err}
	}
	return e.ParsePosts(elements), nil
}

// ScrapeAll scrolls through the whole view, merging posts by ID into a
// fresh accumulator. It stops once the page height has not grown for three
// consecutive scrolls. Each call starts from scratch, so a failed run can
// simply be retried.
func (e *Extractor) ScrapeAll(ctx context.Context, vp Viewport) ([]types.RawRecord, error) {
	acc := newAccumulator()

	prevHeight, err := vp.PageHeight(ctx)
	if err != nil {
		return nil, &types.TransportError{Target: viewportTarget, Err: err}
	}

	stable := 0
	for round := 0; round < maxRounds && stable < stableRounds; round++ {
		if err := e.collect(ctx, vp, acc); err != nil {
			return nil, err
		}

		if err := vp.ScrollToBottom(ctx); err != nil {
			return nil, &types.TransportError{Target: viewportTarget, Err: err}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(settleInterval):
		}

		height, err := vp.PageHeight(ctx)
		if err != nil {
			return nil, &types.TransportError{Target: viewportTarget, Err: err}
		}
		if height <= prevHeight {
			stable++
		} else {
			stable = 0
		}
		prevHeight = height

		e.log.Debug().
			Int("round", round+1).
			Int("height", height).
			Int("stable", stable).
			Int("collected", acc.len()).
			Msg("scrolled")
	}

	// The last scroll may have rendered posts that were not collected yet.
	if err := e.collect(ctx, vp, acc); err != nil {
		return nil, err
	}

	e.log.Info().Int("posts", acc.len()).Msg("scrape complete")
	return acc.records(), nil
}

func (e *Extractor) collect(ctx context.Context, vp Viewport, acc *accumulator) error {
	elements, err := vp.VisiblePosts(ctx)
	if err != nil {
		return &types.TransportError{Target: viewportTarget, Err: err}
	}
	for _, rec := range e.ParsePosts(elements) {
		acc.add(rec)
	}
	return nil
}
