package models

import "errors"

// Sentinel errors shared across services and handlers.
var (
	// ErrNotFound indicates a subject, rule or alert does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input that was rejected before any
	// state change.
	ErrValidation = errors.New("validation failed")

	// ErrEvaluationInProgress is returned by the manual-trigger entry point
	// when an evaluation pass is already in flight.
	ErrEvaluationInProgress = errors.New("evaluation pass already in progress")
)
