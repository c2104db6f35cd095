package client

import (
	"sync"

	"docbridge/pkg/logging"
)

// State is the backend client lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateErrored  State = "errored"
)

// StateChange is the payload published on client state transitions.
type StateChange struct {
	Old State
	New State
	Err error
}

// StateChangeCallback is invoked when the client's state changes.
type StateChangeCallback func(change StateChange)

// stateTracker holds the client state and notifies on transitions. The
// callback runs outside the lock to avoid deadlocks with re-entrant calls.
type stateTracker struct {
	mu        sync.RWMutex
	state     State
	lastError error
	callback  StateChangeCallback
}

func newStateTracker() *stateTracker {
	return &stateTracker{state: StateStopped}
}

func (t *stateTracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *stateTracker) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastError
}

func (t *stateTracker) SetCallback(cb StateChangeCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = cb
}

func (t *stateTracker) set(newState State, err error) {
	t.mu.Lock()
	oldState := t.state
	t.state = newState
	t.lastError = err
	callback := t.callback
	t.mu.Unlock()

	if oldState != newState {
		logging.Debug("Client", "State changed: %s -> %s", oldState, newState)
		if callback != nil {
			callback(StateChange{Old: oldState, New: newState, Err: err})
		}
	}
}
