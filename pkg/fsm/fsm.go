// Package fsm provides a guarded finite-state machine built around an
// immutable transition table. The table is constructed once at startup and
// shared across any number of per-instance machines; each machine carries only
// its current state and extended variables.
package fsm

import (
	"github.com/openbank/onboarding/pkg/vars"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Guard evaluates whether a transition is allowed for the given extended
// variables. Guards must be pure and must never panic on missing or oddly
// typed values.
type Guard func(v vars.Vars) bool

// Transition defines a guarded state change triggered by an event.
type Transition struct {
	From  State
	Event Event
	Guard Guard // nil means unconditional
	To    State
}

// AllOf combines guards with a short-circuiting AND. Nil guards fail the
// combination, matching the behavior of a misconfigured table rather than
// silently passing.
func AllOf(guards ...Guard) Guard {
	return func(v vars.Vars) bool {
		for _, g := range guards {
			if g == nil || !g(v) {
				return false
			}
		}
		return true
	}
}

// Not inverts a guard. A nil guard is treated as always-false, so Not(nil)
// always passes.
func Not(g Guard) Guard {
	return func(v vars.Vars) bool {
		return g == nil || !g(v)
	}
}
