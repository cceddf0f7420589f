// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"errors"
	"sync"
	"time"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// ErrRunInProgress is returned when a run is requested while another is
// still processing. Requests are rejected, not queued.
var ErrRunInProgress = errors.New("a run is already in progress")

// Observer receives a copy of the run state after every mutation.
type Observer interface {
	Observe(state types.ProcessState)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(types.ProcessState)

// Observe calls f(state).
func (f ObserverFunc) Observe(state types.ProcessState) { f(state) }

// Tracker owns the single ProcessState of a process. Observers are called
// synchronously under the tracker lock and must not call back into it.
type Tracker struct {
	mu        sync.Mutex
	state     types.ProcessState
	observers []Observer
	now       func() time.Time
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{
		state: types.ProcessState{Phase: types.PhaseIdle},
		now:   time.Now,
	}
}

// Subscribe registers o for every subsequent state change.
func (t *Tracker) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() types.ProcessState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Begin resets the state for a new run and enters the scraping phase. It
// fails with ErrRunInProgress while another run holds the tracker.
func (t *Tracker) Begin(runID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.IsProcessing {
		return ErrRunInProgress
	}
	t.state = types.ProcessState{
		RunID:        runID,
		Phase:        types.PhaseScraping,
		IsProcessing: true,
		StartedAt:    t.now(),
	}
	t.broadcastLocked()
	return nil
}

// Update applies fn to the state and notifies observers.
func (t *Tracker) Update(fn func(s *types.ProcessState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.state)
	t.broadcastLocked()
}

// Complete ends the run successfully and releases the exclusion.
func (t *Tracker) Complete() types.ProcessState {
	return t.finish(types.PhaseComplete, "")
}

// Fail ends the run in the error phase and releases the exclusion.
func (t *Tracker) Fail(err error) types.ProcessState {
	return t.finish(types.PhaseError, err.Error())
}

func (t *Tracker) finish(phase types.Phase, msg string) types.ProcessState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = phase
	t.state.Error = msg
	t.state.IsProcessing = false
	t.state.FinishedAt = t.now()
	t.broadcastLocked()
	return t.state
}

func (t *Tracker) broadcastLocked() {
	for _, o := range t.observers {
		o.Observe(t.state)
	}
}
