package onboarding

import (
	"github.com/openbank/onboarding/pkg/vars"
)

// CheckError is a single structured precondition failure.
type CheckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Precondition vets the payload offered for a transition before the engine is
// invoked. Guards decide whether a transition exists at all; preconditions
// decide whether the payload for a known-reachable transition is acceptable.
type Precondition interface {
	// Supports reports whether this check applies to the attempted
	// transition.
	Supports(t ProcessType, s ProcessState, e ProcessEvent) bool

	// Validate returns the failed checks for the instance and payload. An
	// empty result means the precondition is satisfied.
	Validate(pi *ProcessInstance, payload map[string]any) []CheckError
}

// PreconditionRegistry runs every registered check whose Supports matches the
// attempted transition and concatenates the resulting errors. The registry is
// open for extension: external checks register without touching the
// orchestrator.
type PreconditionRegistry struct {
	checks []Precondition
}

func NewPreconditionRegistry(checks ...Precondition) *PreconditionRegistry {
	return &PreconditionRegistry{checks: checks}
}

// Register appends a check. Not safe for concurrent use with ValidateAll;
// registration happens during startup wiring.
func (r *PreconditionRegistry) Register(p Precondition) {
	if p != nil {
		r.checks = append(r.checks, p)
	}
}

// ValidateAll collects the failures of every applicable check.
func (r *PreconditionRegistry) ValidateAll(pi *ProcessInstance, e ProcessEvent, payload map[string]any) []CheckError {
	var out []CheckError
	for _, c := range r.checks {
		if c.Supports(pi.Type, pi.State, e) {
			out = append(out, c.Validate(pi, payload)...)
		}
	}
	return out
}

// readVar resolves key from the payload first, falling back to the persisted
// process variables, so checks always observe the freshest value.
func readVar(payload map[string]any, pi *ProcessInstance, key string) any {
	if payload != nil {
		if v, ok := payload[key]; ok && v != nil {
			return v
		}
	}
	if pi.Variables != nil {
		return pi.Variables[key]
	}
	return nil
}

// isBlank reports whether a resolved value is missing, a blank string, or an
// empty collection.
func isBlank(v any) bool {
	return vars.IsBlankValue(v)
}
