package onboarding

import (
	"context"
	"sync"
	"time"
)

// ProcessStore is the durable home of process instances.
type ProcessStore interface {
	// Load returns the instance by id, or ErrProcessNotFound.
	Load(ctx context.Context, id string) (*ProcessInstance, error)

	// Save persists the instance conditionally on the version it was loaded
	// with and bumps the version on success. A stale version yields
	// ErrVersionConflict; the caller must reload and retry.
	Save(ctx context.Context, pi *ProcessInstance) error
}

// HistoryStore is the append-only audit trail. Appends follow at-least-once,
// best-effort semantics: a failed write is logged by the caller and never
// rolls back the primary state transition.
type HistoryStore interface {
	Append(ctx context.Context, h ProcessHistory) error
	ListByProcess(ctx context.Context, processID string) ([]ProcessHistory, error)
}

// Snapshot is a serialized capture of machine internals used to resume
// execution across restarts. It is a best-effort cache: the ProcessInstance
// record stays authoritative for state.
type Snapshot struct {
	State     ProcessState `json:"state"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SnapshotStore caches machine-context snapshots keyed by process id.
type SnapshotStore interface {
	Write(ctx context.Context, processID string, s Snapshot) error

	// Read returns the snapshot and whether one was present. Both a miss and
	// an infrastructure failure make the caller fall back to the persisted
	// process record.
	Read(ctx context.Context, processID string) (Snapshot, bool, error)
}

// MemorySnapshotStore is the in-process SnapshotStore used in tests and
// single-node deployments without Redis.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string]Snapshot)}
}

func (s *MemorySnapshotStore) Write(_ context.Context, processID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[processID] = snap
	return nil
}

func (s *MemorySnapshotStore) Read(_ context.Context, processID string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[processID]
	return snap, ok, nil
}
