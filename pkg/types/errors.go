// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Message
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// AnalysisError reports an exhausted-retry generator failure or model
// output that does not match the expected structure. Raw holds the model
// response when one was received.
type AnalysisError struct {
	ID  string
	Raw string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyzing %s: %v", e.ID, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// WriteError reports a storage fault while persisting a note.
type WriteError struct {
	ID   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("writing note for %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("writing note for %s at %s: %v", e.ID, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// TransportError reports an unreachable endpoint or extraction target.
type TransportError struct {
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport to %s: %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemovalError reports a per-item removal failure. It never aborts a run.
type RemovalError struct {
	ID     string
	Status RemovalStatus
	Err    error
}

func (e *RemovalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("removing bookmark %s: %s", e.ID, e.Status)
	}
	return fmt.Sprintf("removing bookmark %s: %s: %v", e.ID, e.Status, e.Err)
}

func (e *RemovalError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAnalysis reports whether err is an AnalysisError.
func IsAnalysis(err error) bool {
	var target *AnalysisError
	return errors.As(err, &target)
}

// IsWrite reports whether err is a WriteError.
func IsWrite(err error) bool {
	var target *WriteError
	return errors.As(err, &target)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsRemoval reports whether err is a RemovalError.
func IsRemoval(err error) bool {
	var target *RemovalError
	return errors.As(err, &target)
}
