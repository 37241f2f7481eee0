package onboarding

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessNotFound is returned when no process exists for the given id.
	ErrProcessNotFound = errors.New("process not found")

	// ErrVersionConflict is returned when an optimistic-concurrency check
	// fails on save. The operation is safe to retry against fresh state.
	ErrVersionConflict = errors.New("process was modified concurrently")

	// ErrStoreUnavailable wraps infrastructure failures of the durable
	// stores.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidInputError reports a malformed or missing request field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func NewInvalidInputError(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}

// PreconditionsNotMetError carries the structured, field-level list of failed
// checks so a client can self-correct. It is a conflict, distinct from
// invalid input: the request was well-formed but the offered payload is not
// acceptable for the attempted transition.
type PreconditionsNotMetError struct {
	State  ProcessState
	Errors []CheckError
}

func (e *PreconditionsNotMetError) Error() string {
	return fmt.Sprintf("preconditions not met at state %q (%d failed checks)", e.State, len(e.Errors))
}

func IsPreconditionsNotMet(err error) bool {
	var e *PreconditionsNotMetError
	return errors.As(err, &e)
}

// EventNotAcceptedError reports a deterministic engine rejection: the event
// has no passing transition for the current state and variables.
type EventNotAcceptedError struct {
	State ProcessState
	Event ProcessEvent
	cause error
}

func (e *EventNotAcceptedError) Error() string {
	return fmt.Sprintf("event %q not accepted at state %q", e.Event, e.State)
}

func (e *EventNotAcceptedError) Unwrap() error { return e.cause }

func IsEventNotAccepted(err error) bool {
	var e *EventNotAcceptedError
	return errors.As(err, &e)
}

// NoNextStepError reports that the step plan defines no automatic step for
// the process's current state.
type NoNextStepError struct {
	Type  ProcessType
	State ProcessState
}

func (e *NoNextStepError) Error() string {
	return fmt.Sprintf("no next step defined for type %q at state %q", e.Type, e.State)
}

func IsNoNextStep(err error) bool {
	var e *NoNextStepError
	return errors.As(err, &e)
}
