package manager

import (
	"time"

	"gojags/internal/model"
)

// State represents lifecycle state of the manager/sessions.
type State string

const (
	StateReady    State = "ready"
	StateLoading  State = "loading"
	StateDraining State = "draining"
	StateError    State = "error"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State    State
	Sessions int
	Err      string
}

// Session is one live model with its admission primitives. The cached fields
// are refreshed after every operation so listing never touches the engine.
type Session struct {
	ID       string
	State    State
	Created  time.Time
	LastUsed time.Time

	model     *model.Model
	chains    int
	iter      int
	adapting  bool
	variables []string

	// Queueing primitives
	genCh   chan struct{} // size 1: single in-flight operation
	queueCh chan struct{} // buffered: queue slots
}
