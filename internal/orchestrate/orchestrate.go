// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate drives one bookmark run through its phases: scraping,
// sending the batch to the submission endpoint, and optionally removing the
// bookmarks whose notes were written. Removal only ever targets ids that the
// endpoint reported as saved during the same run.
package orchestrate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// Scraper collects posts from the bookmarks view. all selects the full
// scroll-to-end pass instead of the visible posts only.
type Scraper interface {
	Scrape(ctx context.Context, all bool) ([]types.RawRecord, error)
}

// Submitter sends a batch to the submission endpoint.
type Submitter interface {
	Submit(ctx context.Context, recs []types.RawRecord) ([]types.ItemResult, error)
}

// Remover retracts bookmarks by id.
type Remover interface {
	RemoveAll(ctx context.Context, ids []string) []types.RemovalResult
}

// RunOptions selects the optional parts of a run.
type RunOptions struct {
	ScrapeAll  bool
	Unbookmark bool
}

// Report is the outcome of a run: the final state plus per-item detail.
type Report struct {
	State    types.ProcessState
	Items    []types.ItemResult
	Removals []types.RemovalResult
}

// Orchestrator runs the state machine. One instance serves one process.
type Orchestrator struct {
	tracker   *Tracker
	scraper   Scraper
	submitter Submitter
	remover   Remover
	log       zerolog.Logger
}

// New wires an Orchestrator. remover may be nil when removal is never
// requested.
func New(tracker *Tracker, scraper Scraper, submitter Submitter, remover Remover, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		tracker:   tracker,
		scraper:   scraper,
		submitter: submitter,
		remover:   remover,
		log:       log.With().Str("component", "orchestrate").Logger(),
	}
}

// Run executes one run. It returns ErrRunInProgress without touching the
// state when another run is active. Phase failures end the run in the error
// phase and are returned alongside the report.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (Report, error) {
	if opts.Unbookmark && o.remover == nil {
		return Report{}, fmt.Errorf("removal requested but no remover configured")
	}

	runID := uuid.NewString()
	if err := o.tracker.Begin(runID); err != nil {
		return Report{}, err
	}
	log := o.log.With().Str("run_id", runID).Logger()
	log.Info().Bool("scrape_all", opts.ScrapeAll).Bool("unbookmark", opts.Unbookmark).Msg("run started")

	var report Report

	recs, err := o.scraper.Scrape(ctx, opts.ScrapeAll)
	if err != nil {
		return o.fail(log, report, fmt.Errorf("scraping: %w", err))
	}
	o.tracker.Update(func(s *types.ProcessState) { s.Total = len(recs) })
	log.Info().Int("posts", len(recs)).Msg("scrape finished")

	if len(recs) == 0 {
		report.State = o.tracker.Complete()
		log.Info().Msg("nothing to send")
		return report, nil
	}

	o.tracker.Update(func(s *types.ProcessState) { s.Phase = types.PhaseSending })
	results, err := o.submitter.Submit(ctx, recs)
	if err != nil {
		return o.fail(log, report, fmt.Errorf("sending: %w", err))
	}
	if rejected := batchRejection(results); rejected != "" {
		report.Items = results
		return o.fail(log, report, fmt.Errorf("sending: batch rejected: %s", rejected))
	}

	succeeded := o.tally(log, recs, results, &report)

	if opts.Unbookmark && len(succeeded) > 0 {
		o.tracker.Update(func(s *types.ProcessState) { s.Phase = types.PhaseUnbookmarking })
		report.Removals = o.remover.RemoveAll(ctx, succeeded)
		for _, r := range report.Removals {
			ok := r.Status.Succeeded()
			o.tracker.Update(func(s *types.ProcessState) {
				if ok {
					s.RemovalSucceeded++
				} else {
					s.RemovalFailed++
				}
			})
		}
	}

	report.State = o.tracker.Complete()
	log.Info().
		Int("succeeded", report.State.Succeeded).
		Int("failed", report.State.Failed).
		Int("removed", report.State.RemovalSucceeded).
		Int("removal_failed", report.State.RemovalFailed).
		Msg("run complete")
	return report, nil
}

// tally folds endpoint results into the state and returns the ids that are
// safe to remove. Results are matched to the submitted batch by id; results
// for ids that were never submitted, or repeats, are ignored.
func (o *Orchestrator) tally(log zerolog.Logger, recs []types.RawRecord, results []types.ItemResult, report *Report) []string {
	submitted := make(map[string]bool, len(recs))
	for _, r := range recs {
		submitted[r.ID] = true
	}

	var succeeded []string
	counted := make(map[string]bool, len(results))
	for _, res := range results {
		if !submitted[res.ID] || counted[res.ID] {
			log.Warn().Str("id", res.ID).Msg("ignoring result for unknown or repeated id")
			continue
		}
		counted[res.ID] = true
		report.Items = append(report.Items, res)

		ok := res.Success
		o.tracker.Update(func(s *types.ProcessState) {
			s.Processed++
			if ok {
				s.Succeeded++
			} else {
				s.Failed++
			}
		})
		if ok {
			succeeded = append(succeeded, res.ID)
		} else {
			log.Warn().Str("id", res.ID).Str("error", res.Error).Msg("item failed")
		}
	}
	return succeeded
}

func (o *Orchestrator) fail(log zerolog.Logger, report Report, err error) (Report, error) {
	report.State = o.tracker.Fail(err)
	log.Error().Err(err).Msg("run failed")
	return report, err
}

// batchRejection returns the diagnostic of a whole-batch validation
// failure, which the endpoint reports as a single result with no id.
func batchRejection(results []types.ItemResult) string {
	if len(results) == 1 && results[0].ID == "" && !results[0].Success {
		return results[0].Error
	}
	return ""
}
