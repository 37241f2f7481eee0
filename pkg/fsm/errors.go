package fsm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to, or event cannot be nil")
	ErrInvalidEvent      = errors.New("invalid event: event cannot be nil")
)

// NoTransitionError indicates no transition exists for the given state/event
// combination, regardless of variables.
type NoTransitionError struct {
	StateName string
	EventName string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition from state %q for event %q", e.StateName, e.EventName)
}

func NewNoTransitionError(stateName, eventName string) *NoTransitionError {
	return &NoTransitionError{StateName: stateName, EventName: eventName}
}

// RejectedError indicates transitions exist for the state/event pair but every
// candidate guard evaluated false for the current variables.
type RejectedError struct {
	StateName string
	EventName string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state %q for event %q was rejected by guards", e.StateName, e.EventName)
}

func NewRejectedError(stateName, eventName string) *RejectedError {
	return &RejectedError{StateName: stateName, EventName: eventName}
}

// IsNotAccepted reports whether err is a deterministic engine rejection, as
// opposed to an infrastructure failure.
func IsNotAccepted(err error) bool {
	var nt *NoTransitionError
	var rj *RejectedError
	return errors.As(err, &nt) || errors.As(err, &rj)
}
