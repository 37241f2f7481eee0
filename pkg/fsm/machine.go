package fsm

import (
	"sync"

	"github.com/openbank/onboarding/pkg/vars"
)

// Machine tracks the current state and extended variables of a single process
// instance against a shared immutable table. It is safe for concurrent use,
// though callers normally serialize access per process through optimistic
// locking at the store boundary.
type Machine struct {
	mu      sync.Mutex
	table   *Table
	current State
	vars    vars.Vars
}

// NewMachine creates a machine positioned at initial with an empty variable
// bag.
func NewMachine(table *Table, initial State) *Machine {
	return &Machine{
		table:   table,
		current: initial,
		vars:    make(vars.Vars),
	}
}

// Current returns the machine's current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Restore repositions the machine without firing an event. Used when
// reconstructing a machine from a persisted record or context snapshot.
func (m *Machine) Restore(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

// MergeVars overwrites the machine's variables with the given updates.
func (m *Machine) MergeVars(updates map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars.Merge(updates)
}

// Vars returns a copy of the machine's variables.
func (m *Machine) Vars() vars.Vars {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vars.Clone()
}

// Fire attempts the transition for event from the current state. On success
// the machine commits the target state and returns nil. A failure is a
// deterministic rejection carrying the attempted (state, event) pair; the
// machine is left unchanged.
func (m *Machine) Fire(event Event) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target, err := m.table.Resolve(m.current, event, m.vars)
	if err != nil {
		return err
	}
	m.current = target
	return nil
}

// CanFire reports whether Fire would currently accept the event.
func (m *Machine) CanFire(event Event) bool {
	if event == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.table.Resolve(m.current, event, m.vars)
	return err == nil
}
