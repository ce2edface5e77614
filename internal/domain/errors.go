package domain

import "errors"

// Common domain errors for pool and tournament operations.
var (
	// ErrCandidateNotFound indicates a pool operation referenced an unknown
	// candidate id. Given correct grouping this is an internal consistency
	// bug, not an expected runtime condition.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrEmptyPool indicates a tournament was started over zero candidates.
	// Callers should treat it as an immediately terminal empty ranking.
	ErrEmptyPool = errors.New("candidate pool is empty")
)
