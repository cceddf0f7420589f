// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"context"

	"github.com/pdiddy/bookmark-vault/internal/extract"
	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// PageScraper binds an Extractor to the viewport it reads from.
type PageScraper struct {
	Extractor *extract.Extractor
	Viewport  extract.Viewport
}

// Scrape runs a full or single pass over the viewport.
func (p PageScraper) Scrape(ctx context.Context, all bool) ([]types.RawRecord, error) {
	if all {
		return p.Extractor.ScrapeAll(ctx, p.Viewport)
	}
	return p.Extractor.ScrapeVisible(ctx, p.Viewport)
}
