package onboarding

import (
	"time"

	"github.com/openbank/onboarding/pkg/vars"
)

// ProcessInstance is the aggregate root of one onboarding process. It is
// created by Start (or StartConversion), mutated by every accepted transition
// and by variable patches, and never deleted: once a terminal state is
// reached the record remains for audit.
type ProcessInstance struct {
	ID       string       `bson:"_id" json:"id"`
	ClientID string       `bson:"client_id" json:"clientId"`
	Type     ProcessType  `bson:"type" json:"type"`
	State    ProcessState `bson:"state" json:"state"`

	Variables vars.Vars `bson:"variables" json:"variables"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`

	// Version implements optimistic concurrency: every save is conditional on
	// the version it read, and a mismatch surfaces as a retryable conflict.
	Version int64 `bson:"version" json:"version"`
}

// ScreenCode returns the screen code of the instance's current state.
func (pi *ProcessInstance) ScreenCode() string {
	return pi.State.ScreenCode()
}

// ProcessHistory is one immutable audit record. History for a process, ordered
// by timestamp, is a gap-free account of every state the process occupied,
// including variable patches where FromState equals ToState.
type ProcessHistory struct {
	ID        string `bson:"_id" json:"id"`
	ProcessID string `bson:"process_id" json:"processId"`

	// FromState is nil only for the creation snapshot.
	FromState *ProcessState `bson:"from_state,omitempty" json:"fromState,omitempty"`
	ToState   ProcessState  `bson:"to_state" json:"toState"`

	// Event is nil for the creation snapshot and for pure variable patches.
	Event *ProcessEvent `bson:"event,omitempty" json:"event,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`

	// Payload is the raw payload that caused the mutation.
	Payload map[string]any `bson:"payload" json:"payload"`

	// VariablesSnapshot is a full copy of the process variables after the
	// mutation.
	VariablesSnapshot map[string]any `bson:"variables_snapshot" json:"variablesSnapshot"`
}
