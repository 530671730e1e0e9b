package action

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no pending action has the requested id,
	// either because it never existed or because it was already resolved.
	ErrNotFound = errors.New("no pending action found")

	// ErrInvalidPayload is returned when a proposal is rejected before an id
	// is issued.
	ErrInvalidPayload = errors.New("invalid action payload")

	// ErrIO is returned when an approved file write fails.
	ErrIO = errors.New("file write failed")

	// ErrExecution is returned when an approved shell command cannot be
	// spawned or the shell itself fails. A non-zero exit status is not an
	// execution error.
	ErrExecution = errors.New("command execution failed")

	// ErrTimeout is returned when an approved shell command exceeds the
	// configured timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrDuplicateID is returned by Store.Put when the id is already pending.
	ErrDuplicateID = errors.New("action id already pending")
)

// FailureKind classifies a failed outcome.
type FailureKind string

// FailureKind values. FailureNone marks a successful outcome.
const (
	FailureNone           FailureKind = ""
	FailureNotFound       FailureKind = "not_found"
	FailureInvalidPayload FailureKind = "invalid_payload"
	FailureIO             FailureKind = "io_failure"
	FailureExecution      FailureKind = "execution_failure"
	FailureTimeout        FailureKind = "timeout"
)

// Classify maps an error to its FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	case errors.Is(err, ErrInvalidPayload):
		return FailureInvalidPayload
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrIO):
		return FailureIO
	default:
		return FailureExecution
	}
}
