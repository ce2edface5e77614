package ports

import (
	"errors"
	"fmt"
)

// Judge boundary errors.
var (
	// ErrMalformedVerdict indicates the judge replied, but the reply could
	// not be mapped to a single in-range choice. It is recoverable: the
	// engine retries the same group and eventually falls back to a random
	// in-group winner.
	ErrMalformedVerdict = errors.New("malformed judge verdict")

	// ErrJudgeUnavailable indicates the judge capability itself could not
	// be reached (transport failure or timeout after local retries).
	// It is fatal for the run: no meaningful ranking can proceed.
	ErrJudgeUnavailable = errors.New("judge unavailable")
)

// JudgeError annotates a judge failure with the model and group size
// involved, preserving the underlying sentinel for errors.Is checks.
type JudgeError struct {
	// Model identifies the oracle model that produced the failure.
	Model string

	// GroupSize is the number of texts in the group being judged.
	GroupSize int

	// Err is the underlying error, normally one of the sentinels above.
	Err error
}

// Error implements the error interface.
func (e *JudgeError) Error() string {
	return fmt.Sprintf("judge error: model=%s, group_size=%d, err=%v", e.Model, e.GroupSize, e.Err)
}

// Unwrap returns the underlying error.
func (e *JudgeError) Unwrap() error { return e.Err }

// NewJudgeError builds a JudgeError for the given model and group size.
func NewJudgeError(model string, groupSize int, err error) *JudgeError {
	return &JudgeError{Model: model, GroupSize: groupSize, Err: err}
}
