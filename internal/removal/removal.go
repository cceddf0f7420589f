// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package removal retracts source bookmarks one at a time. Each removal is
// confirmed by watching the page: a click alone never counts as success.
package removal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// Presence describes what Locate found for a post.
type Presence int

const (
	// Gone means the post is no longer on the page.
	Gone Presence = iota
	// NoControl means the post is present but its remove control is not.
	NoControl
	// Ready means the post and its remove control are both present.
	Ready
)

func (p Presence) String() string {
	switch p {
	case Gone:
		return "gone"
	case NoControl:
		return "no-control"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("presence(%d)", int(p))
}

// Target is the page the bookmarks live on. Locate must look the post up
// afresh on every call; element handles are never cached across calls.
type Target interface {
	Locate(ctx context.Context, id string) (Presence, error)
	Activate(ctx context.Context, id string) error
}

// Timing knobs. Tests shrink these.
var (
	settleDelay  = 500 * time.Millisecond
	pollInterval = 100 * time.Millisecond
	pollTimeout  = 1500 * time.Millisecond
	itemDelay    = time.Second
)

const maxRetries = 2

// Remover runs the confirmation-gated removal loop.
type Remover struct {
	target Target
	log    zerolog.Logger
}

// New returns a Remover acting on target.
func New(target Target, log zerolog.Logger) *Remover {
	return &Remover{target: target, log: log.With().Str("component", "removal").Logger()}
}

// RemoveAll processes ids sequentially and returns one result per id in
// order. A failed item never stops the loop; context cancellation does, and
// the remaining ids are reported as errors.
func (r *Remover) RemoveAll(ctx context.Context, ids []string) []types.RemovalResult {
	results := make([]types.RemovalResult, 0, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, failed(id, types.RemovalErrored, err))
			continue
		}

		res := r.removeOne(ctx, id)
		results = append(results, res)
		var ev *zerolog.Event
		if res.Status.Succeeded() {
			ev = r.log.Info()
		} else {
			ev = r.log.Warn().Str("error", res.Error)
		}
		ev.Str("id", id).Str("status", string(res.Status)).Int("item", i+1).Int("of", len(ids)).Msg("removal")

		if res.Status == types.RemovalRemoved && i < len(ids)-1 {
			sleep(ctx, itemDelay)
		}
	}
	return results
}

func (r *Remover) removeOne(ctx context.Context, id string) types.RemovalResult {
	ready := false
	for attempt := 0; attempt <= maxRetries && !ready; attempt++ {
		if attempt > 0 {
			sleep(ctx, settleDelay)
		}
		p, err := r.target.Locate(ctx, id)
		if err != nil {
			return failed(id, types.RemovalErrored, err)
		}
		switch p {
		case Gone:
			// Treated as done by an earlier pass or another client.
			return types.RemovalResult{ID: id, Status: types.RemovalAlreadyRemoved}
		case Ready:
			ready = true
		default:
			r.log.Debug().Str("id", id).Int("attempt", attempt+1).Msg("remove control not found, settling")
		}
	}
	if !ready {
		return failed(id, types.RemovalNotFound, nil)
	}

	for click := 0; click <= maxRetries; click++ {
		if err := r.target.Activate(ctx, id); err != nil {
			return failed(id, types.RemovalErrored, err)
		}
		confirmed, err := r.confirm(ctx, id)
		if err != nil {
			return failed(id, types.RemovalErrored, err)
		}
		if confirmed {
			return types.RemovalResult{ID: id, Status: types.RemovalRemoved}
		}
		r.log.Debug().Str("id", id).Int("click", click+1).Msg("removal not confirmed, clicking again")
	}
	return failed(id, types.RemovalTimeout, nil)
}

// confirm polls until the post vanishes or its control changes, or until
// pollTimeout elapses.
func (r *Remover) confirm(ctx context.Context, id string) (bool, error) {
	deadline := time.Now().Add(pollTimeout)
	for {
		sleep(ctx, pollInterval)
		p, err := r.target.Locate(ctx, id)
		if err != nil {
			return false, err
		}
		if p != Ready {
			return true, nil
		}
		if !time.Now().Before(deadline) || ctx.Err() != nil {
			return false, nil
		}
	}
}

func failed(id string, status types.RemovalStatus, cause error) types.RemovalResult {
	err := &types.RemovalError{ID: id, Status: status, Err: cause}
	return types.RemovalResult{ID: id, Status: status, Error: err.Error()}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
