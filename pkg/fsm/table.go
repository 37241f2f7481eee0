package fsm

import (
	"github.com/openbank/onboarding/pkg/vars"
)

// Table is an immutable set of guarded transitions indexed for O(1) candidate
// lookup: [fromState][event][]Transition. Guard sets covering the same
// (state, event) pair must be mutually exclusive; the table itself does not
// tie-break, the first passing guard in insertion order wins.
type Table struct {
	transitions map[string]map[string][]Transition
}

// NewTable builds a table from the given transitions. It fails on nil states
// or events so that configuration defects surface at startup.
func NewTable(defs ...Transition) (*Table, error) {
	t := &Table{transitions: make(map[string]map[string][]Transition)}
	for _, def := range defs {
		if def.From == nil || def.To == nil || def.Event == nil {
			return nil, ErrInvalidTransition
		}
		from := def.From.Name()
		event := def.Event.Name()
		if _, ok := t.transitions[from]; !ok {
			t.transitions[from] = make(map[string][]Transition)
		}
		t.transitions[from][event] = append(t.transitions[from][event], def)
	}
	return t, nil
}

// MustNewTable builds a table and panics on configuration defects.
func MustNewTable(defs ...Transition) *Table {
	t, err := NewTable(defs...)
	if err != nil {
		panic("fsm: invalid transition table: " + err.Error())
	}
	return t
}

// candidates returns the transitions registered for (from, event) in
// insertion order. The returned slice must not be mutated.
func (t *Table) candidates(from State, event Event) []Transition {
	byEvent, ok := t.transitions[from.Name()]
	if !ok {
		return nil
	}
	return byEvent[event.Name()]
}

// Has reports whether any transition exists for (from, event), regardless of
// guards.
func (t *Table) Has(from State, event Event) bool {
	return len(t.candidates(from, event)) > 0
}

// Resolve returns the target state of the first transition from (from, event)
// whose guard passes for the given variables.
func (t *Table) Resolve(from State, event Event, v vars.Vars) (State, error) {
	cands := t.candidates(from, event)
	if len(cands) == 0 {
		return nil, NewNoTransitionError(from.Name(), event.Name())
	}
	for _, c := range cands {
		if c.Guard == nil || c.Guard(v) {
			return c.To, nil
		}
	}
	return nil, NewRejectedError(from.Name(), event.Name())
}
