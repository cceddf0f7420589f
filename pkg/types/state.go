// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Phase is a state of the orchestration state machine.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseScraping      Phase = "scraping"
	PhaseSending       Phase = "sending"
	PhaseUnbookmarking Phase = "unbookmarking"
	PhaseComplete      Phase = "complete"
	PhaseError         Phase = "error"
)

// Terminal reports whether p ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// ProcessState is the single run-state shared with observers. It is reset
// at the start of every run.
type ProcessState struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Phase Phase  `json:"phase" yaml:"phase"`

	Total            int `json:"total" yaml:"total"`
	Processed        int `json:"processed" yaml:"processed"`
	Succeeded        int `json:"succeeded" yaml:"succeeded"`
	Failed           int `json:"failed" yaml:"failed"`
	RemovalSucceeded int `json:"removal_succeeded" yaml:"removal_succeeded"`
	RemovalFailed    int `json:"removal_failed" yaml:"removal_failed"`

	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
	IsProcessing bool   `json:"is_processing" yaml:"is_processing"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// ItemResult is the per-item outcome returned by the submission endpoint.
type ItemResult struct {
	ID        string `json:"id" yaml:"id"`
	Success   bool   `json:"success" yaml:"success"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}

// SubmitRequest is the body of a batch submission.
type SubmitRequest struct {
	Bookmarks []RawRecord `json:"bookmarks"`
}

// SubmitResponse is the body returned by the submission endpoint.
type SubmitResponse struct {
	Results []ItemResult `json:"results"`
}

// RemovalStatus is the outcome of retracting one bookmark.
type RemovalStatus string

const (
	RemovalRemoved        RemovalStatus = "removed"
	RemovalAlreadyRemoved RemovalStatus = "already-removed"
	RemovalNotFound       RemovalStatus = "not-found"
	RemovalTimeout        RemovalStatus = "timeout"
	RemovalErrored        RemovalStatus = "error"
)

// Succeeded reports whether the status counts as a successful removal.
func (s RemovalStatus) Succeeded() bool {
	return s == RemovalRemoved || s == RemovalAlreadyRemoved
}

// RemovalResult is the per-item outcome of the removal phase.
type RemovalResult struct {
	ID     string        `json:"id" yaml:"id"`
	Status RemovalStatus `json:"status" yaml:"status"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}
