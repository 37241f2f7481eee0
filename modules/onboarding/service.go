package onboarding

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openbank/onboarding/pkg/fsm"
	"github.com/openbank/onboarding/pkg/vars"
)

// Flow orchestrates the onboarding workflow. Every public operation is one
// logical unit of work: load the record, vet preconditions, restore the
// machine, attempt the guarded transition, persist with an optimistic version
// check, then snapshot the machine context and append history best-effort.
type Flow struct {
	store     ProcessStore
	history   HistoryStore
	snapshots SnapshotStore

	tables map[ProcessType]*fsm.Table
	plan   *StepPlan
	checks *PreconditionRegistry

	log *slog.Logger
}

// NewFlow builds the orchestrator with the default transition tables, step
// plan and preconditions derived from cfg.
func NewFlow(cfg Config, store ProcessStore, history HistoryStore, snapshots SnapshotStore, log *slog.Logger) (*Flow, error) {
	tables, err := BuildTables(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Flow{
		store:     store,
		history:   history,
		snapshots: snapshots,
		tables:    tables,
		plan:      NewStepPlan(),
		checks:    NewPreconditionRegistry(DefaultPreconditions(cfg)...),
		log:       log,
	}, nil
}

// RegisterPrecondition adds an external payload check. Call during startup
// wiring, before the flow serves requests.
func (f *Flow) RegisterPrecondition(p Precondition) {
	f.checks.Register(p)
}

// Start creates a new process in STARTED with a mutable copy of the initial
// variables and writes the creation history snapshot.
func (f *Flow) Start(ctx context.Context, clientID string, t ProcessType, initial map[string]any) (*ProcessInstance, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, NewInvalidInputError("clientId", "must not be blank")
	}
	if _, ok := f.tables[t]; !ok {
		return nil, NewInvalidInputError("type", "unknown process type")
	}
	return f.create(ctx, clientID, t, StateStarted, vars.Vars(initial).Clone())
}

// StartConversion creates a minor-to-regular conversion process directly in
// MINOR_ACCOUNT_IDENTIFIED, the only valid entry point of that flow, and
// records the linked minor account id for traceability. A blank account id is
// tolerated but flagged for audit.
func (f *Flow) StartConversion(ctx context.Context, clientID, minorAccountID string, initial map[string]any) (*ProcessInstance, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, NewInvalidInputError("clientId", "must not be blank")
	}

	v := vars.Vars(initial).Clone()
	if strings.TrimSpace(minorAccountID) == "" {
		f.log.WarnContext(ctx, "starting conversion without linked minor account id",
			slog.String("client_id", clientID))
	} else {
		v[VarLinkedMinorAccountID] = minorAccountID
	}

	return f.create(ctx, clientID, TypeMinorToRegular, StateMinorAccountIdentified, v)
}

func (f *Flow) create(ctx context.Context, clientID string, t ProcessType, initial ProcessState, v vars.Vars) (*ProcessInstance, error) {
	now := time.Now().UTC()
	pi := &ProcessInstance{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Type:      t,
		State:     initial,
		Variables: v,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := f.store.Save(ctx, pi); err != nil {
		return nil, err
	}

	f.appendHistory(ctx, pi, nil, nil, v)
	return pi, nil
}

// Get returns the process by id.
func (f *Flow) Get(ctx context.Context, id string) (*ProcessInstance, error) {
	return f.store.Load(ctx, id)
}

// History returns the chronological audit trail of the process.
func (f *Flow) History(ctx context.Context, id string) ([]ProcessHistory, error) {
	if _, err := f.store.Load(ctx, id); err != nil {
		return nil, err
	}
	return f.history.ListByProcess(ctx, id)
}

// UpdateVariables merges updates into the process without changing its state
// and still appends a history record, so the audit trail captures every
// variable mutation.
func (f *Flow) UpdateVariables(ctx context.Context, id string, updates map[string]any) (*ProcessInstance, error) {
	pi, err := f.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if pi.Variables == nil {
		pi.Variables = make(vars.Vars)
	}
	pi.Variables.Merge(updates)
	pi.UpdatedAt = time.Now().UTC()

	if err := f.store.Save(ctx, pi); err != nil {
		return nil, err
	}

	from := pi.State
	f.appendHistory(ctx, pi, &from, nil, updates)
	return pi, nil
}

// HandleEvent applies a client-driven or async-callback event: preconditions
// first, then the guard-checked transition, then persistence, snapshot and
// history. The payload is merged into the extended variables before the
// transition is evaluated so guards observe it.
func (f *Flow) HandleEvent(ctx context.Context, id string, event ProcessEvent, payload map[string]any) (*ProcessInstance, error) {
	pi, err := f.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := f.checks.ValidateAll(pi, event, payload); len(errs) > 0 {
		return nil, &PreconditionsNotMetError{State: pi.State, Errors: errs}
	}

	machine, err := f.restoreMachine(ctx, pi, payload)
	if err != nil {
		return nil, err
	}

	prev := pi.State
	if err := machine.Fire(event); err != nil {
		if fsm.IsNotAccepted(err) {
			f.log.WarnContext(ctx, "event not accepted",
				slog.String("process_id", id),
				slog.String("state", string(prev)),
				slog.String("event", string(event)))
			return nil, &EventNotAcceptedError{State: prev, Event: event, cause: err}
		}
		return nil, err
	}

	newState, _ := machine.Current().(ProcessState)

	if pi.Variables == nil {
		pi.Variables = make(vars.Vars)
	}
	pi.Variables.Merge(payload)
	pi.State = newState
	pi.UpdatedAt = time.Now().UTC()

	if err := f.store.Save(ctx, pi); err != nil {
		return nil, err
	}

	f.writeSnapshot(ctx, pi)
	f.appendHistory(ctx, pi, &prev, &event, payload)
	return pi, nil
}

// Advance progresses the process by the canonical next event from the step
// plan. A state with no plan entry is a hard failure, not a no-op.
func (f *Flow) Advance(ctx context.Context, id string, payload map[string]any) (*ProcessInstance, error) {
	pi, err := f.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := f.plan.Next(pi.Type, pi.State)
	if !ok {
		return nil, &NoNextStepError{Type: pi.Type, State: pi.State}
	}

	return f.HandleEvent(ctx, id, next, payload)
}

// Async result types accepted by SubmitAsyncResult.
var asyncResultEvents = map[string]ProcessEvent{
	"kyc":                 EventKYCVerified,
	"biometry":            EventBiometrySuccess,
	"document_match":      EventPerformDocumentMatch,
	"customer_validation": EventValidateCustomerInfo,
}

// SubmitAsyncResult maps an external result type to its internal event and
// handles it like any inbound event. Unknown types are invalid input, not a
// conflict.
func (f *Flow) SubmitAsyncResult(ctx context.Context, id, resultType string, payload map[string]any) (*ProcessInstance, error) {
	event, ok := asyncResultEvents[strings.ToLower(strings.TrimSpace(resultType))]
	if !ok {
		return nil, NewInvalidInputError("type", "unknown async result type")
	}
	return f.HandleEvent(ctx, id, event, payload)
}

// restoreMachine re-derives a consistent machine for the process: position
// from the snapshot cache when available, otherwise from the persisted
// record, then variables seeded with process type, persisted variables and
// the incoming payload, in that overwrite order.
func (f *Flow) restoreMachine(ctx context.Context, pi *ProcessInstance, payload map[string]any) (*fsm.Machine, error) {
	table, ok := f.tables[pi.Type]
	if !ok {
		return nil, NewInvalidInputError("type", "no transition table for process type")
	}

	machine := fsm.NewMachine(table, pi.State)

	snap, found, err := f.snapshots.Read(ctx, pi.ID)
	if err != nil {
		f.log.DebugContext(ctx, "snapshot read failed, falling back to stored state",
			slog.String("process_id", pi.ID), slog.Any("error", err))
	} else if found && snap.State != "" {
		machine.Restore(snap.State)
	}

	machine.MergeVars(map[string]any{VarProcessType: string(pi.Type)})
	machine.MergeVars(pi.Variables)
	machine.MergeVars(payload)
	return machine, nil
}

// writeSnapshot caches the machine context best-effort.
func (f *Flow) writeSnapshot(ctx context.Context, pi *ProcessInstance) {
	err := f.snapshots.Write(ctx, pi.ID, Snapshot{State: pi.State, UpdatedAt: pi.UpdatedAt})
	if err != nil {
		f.log.DebugContext(ctx, "snapshot write failed (ignored)",
			slog.String("process_id", pi.ID), slog.Any("error", err))
	}
}

// appendHistory writes one audit record with the variables snapshot after the
// mutation. Failures are logged and swallowed: audit completeness is traded
// for workflow availability.
func (f *Flow) appendHistory(ctx context.Context, pi *ProcessInstance, from *ProcessState, event *ProcessEvent, payload map[string]any) {
	h := ProcessHistory{
		ID:                uuid.NewString(),
		ProcessID:         pi.ID,
		FromState:         from,
		ToState:           pi.State,
		Event:             event,
		Timestamp:         time.Now().UTC(),
		Payload:           vars.Vars(payload).Clone(),
		VariablesSnapshot: pi.Variables.Clone(),
	}
	if err := f.history.Append(ctx, h); err != nil {
		f.log.WarnContext(ctx, "failed to append history",
			slog.String("process_id", pi.ID),
			slog.String("to_state", string(pi.State)),
			slog.Any("error", err))
	}
}
