// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package submit processes a batch of raw records into notes. Items run
// sequentially in submission order and a failure on one item never stops the
// rest of the batch.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// Analyzer categorizes one record.
type Analyzer interface {
	Analyze(ctx context.Context, rec types.RawRecord) (types.CategorizedRecord, error)
}

// Writer persists categorized records and answers dedup queries.
type Writer interface {
	IsDuplicate(id string) (bool, error)
	Write(ctx context.Context, rec types.CategorizedRecord) (types.Note, error)
}

// Expander optionally enriches a categorized record before it is written.
type Expander interface {
	Expand(ctx context.Context, rec types.CategorizedRecord) types.CategorizedRecord
}

// Processor runs the analyze, expand, write sequence for each item.
type Processor struct {
	analyzer Analyzer
	writer   Writer
	expander Expander
	log      zerolog.Logger
}

// NewProcessor wires a Processor. expander may be nil.
func NewProcessor(a Analyzer, w Writer, e Expander, log zerolog.Logger) *Processor {
	return &Processor{
		analyzer: a,
		writer:   w,
		expander: e,
		log:      log.With().Str("component", "submit").Logger(),
	}
}

// ProcessBatch returns one result per record, in input order.
func (p *Processor) ProcessBatch(ctx context.Context, recs []types.RawRecord) []types.ItemResult {
	start := time.Now()
	results := make([]types.ItemResult, len(recs))
	var ok, dup, failed int

	for i, rec := range recs {
		res := p.processOne(ctx, rec)
		results[i] = res
		switch {
		case !res.Success:
			failed++
		case res.Duplicate:
			ok++
			dup++
		default:
			ok++
		}
	}

	p.log.Info().
		Int("total", len(recs)).
		Int("succeeded", ok).
		Int("duplicates", dup).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("batch processed")
	return results
}

func (p *Processor) processOne(ctx context.Context, rec types.RawRecord) types.ItemResult {
	res := types.ItemResult{ID: rec.ID}
	log := p.log.With().Str("id", rec.ID).Logger()

	dup, err := p.writer.IsDuplicate(rec.ID)
	if err != nil {
		res.Error = fmt.Sprintf("checking duplicate: %v", err)
		log.Error().Err(err).Msg("duplicate check failed")
		return res
	}
	if dup {
		res.Success = true
		res.Duplicate = true
		log.Debug().Msg("already saved")
		return res
	}

	categorized, err := p.analyzer.Analyze(ctx, rec.Clone())
	if err != nil {
		res.Error = err.Error()
		log.Warn().Err(err).Msg("analysis failed")
		return res
	}

	if p.expander != nil {
		categorized = p.expander.Expand(ctx, categorized)
	}

	note, err := p.writer.Write(ctx, categorized)
	if err != nil {
		res.Error = err.Error()
		log.Error().Err(err).Msg("write failed")
		return res
	}

	res.Success = true
	if note.IsEmpty() {
		res.Duplicate = true
		return res
	}
	res.Path = note.Path
	return res
}
