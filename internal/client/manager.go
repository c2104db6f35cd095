package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"docbridge/internal/bootstrap"
	"docbridge/internal/events"
	"docbridge/internal/settings"
	"docbridge/pkg/logging"
)

// RestartGracePeriod is the pause between stop and start during a restart,
// giving the old backend process time to release its resources.
const RestartGracePeriod = 200 * time.Millisecond

// Bootstrapper yields a validated, compatible backend or a definitive
// failure. Implemented by bootstrap.Orchestrator.
type Bootstrapper interface {
	Run(ctx context.Context) bootstrap.Outcome
}

// Manager owns zero or one running backend connection per workspace. It
// starts, stops and restarts the connection from the current settings and
// fans backend lifecycle notifications out to event subscribers.
type Manager struct {
	tracker      *stateTracker
	bus          *events.Bus
	launcher     Launcher
	bootstrapper Bootstrapper

	// Settings reads the current settings; the manager re-reads on every
	// (re)start so configuration changes take effect through restarts only.
	settingsFn func() settings.Settings

	mu             sync.Mutex
	conn           Connection
	allowRestarts  bool
	pendingRestart bool
	startMu        sync.Mutex
}

// NewManager creates a lifecycle manager. State transitions are published
// on the bus as EventClientStateChanged.
func NewManager(bus *events.Bus, launcher Launcher, bootstrapper Bootstrapper, settingsFn func() settings.Settings) *Manager {
	m := &Manager{
		tracker:       newStateTracker(),
		bus:           bus,
		launcher:      launcher,
		bootstrapper:  bootstrapper,
		settingsFn:    settingsFn,
		allowRestarts: true,
	}
	m.tracker.SetCallback(func(change StateChange) {
		bus.Publish(events.EventClientStateChanged, change)
	})
	return m
}

// State returns the current client state.
func (m *Manager) State() State {
	return m.tracker.State()
}

// LastError returns the error recorded with the last state transition.
func (m *Manager) LastError() error {
	return m.tracker.LastError()
}

// Start bootstraps the backend and establishes the connection. A start
// while a connection exists is rejected; callers stop first. Concurrent
// starts serialize, and the underlying bootstrap run is shared.
func (m *Manager) Start(ctx context.Context) error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	cfg := m.settingsFn()
	if !cfg.Enabled {
		logging.Debug("ClientManager", "Integration disabled, not starting")
		return nil
	}

	m.mu.Lock()
	if m.conn != nil {
		m.mu.Unlock()
		return fmt.Errorf("backend connection already exists; stop it before starting a new one")
	}
	m.mu.Unlock()

	m.tracker.set(StateStarting, nil)

	outcome := m.bootstrapper.Run(ctx)
	if outcome.Kind != bootstrap.OutcomeReady {
		m.tracker.set(StateStopped, outcome.Err)
		err := &BootstrapError{Outcome: outcome}
		logging.Error("ClientManager", err, "Backend not started")
		return err
	}

	spec := LaunchSpec{
		Argv:    BuildLaunchArgs(outcome.Environment, cfg),
		Payload: BuildInitPayload(cfg),
	}

	conn, err := m.launcher.Launch(ctx, spec)
	if err != nil {
		connErr := &ConnectionError{Err: err}
		m.tracker.set(StateErrored, connErr)
		return connErr
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	go m.pump(conn)

	m.tracker.set(StateRunning, nil)
	logging.Info("ClientManager", "Backend running (connection %s, version %s)", conn.ID(), outcome.Version)
	return nil
}

// Stop terminates the connection if one exists. Stopping an already-stopped
// client is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil && m.tracker.State() == StateStopped {
		return
	}

	if conn != nil {
		if err := conn.Close(); err != nil {
			logging.Warn("ClientManager", "Error closing connection: %v", err)
		}
	}
	m.tracker.set(StateStopped, nil)
}

// Restart fully stops the previous connection before starting a new one;
// there are never overlapping connections. When the integration is disabled
// it only stops. While restarts are suspended the request is recorded and
// coalesced into the single restart ResumeRestarts performs.
func (m *Manager) Restart(ctx context.Context) error {
	if !m.settingsFn().Enabled {
		logging.Info("ClientManager", "Integration disabled, stopping backend")
		m.Stop()
		return nil
	}

	m.mu.Lock()
	if !m.allowRestarts {
		m.pendingRestart = true
		m.mu.Unlock()
		logging.Debug("ClientManager", "Restart deferred while restarts are suspended")
		return nil
	}
	m.mu.Unlock()

	m.Stop()
	time.Sleep(RestartGracePeriod)
	return m.Start(ctx)
}

// SuspendRestarts suppresses restart cascades while a multi-key settings
// update is applied in bulk.
func (m *Manager) SuspendRestarts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowRestarts = false
}

// ResumeRestarts re-enables restarts and performs the one coalesced restart
// if any were requested while suspended.
func (m *Manager) ResumeRestarts(ctx context.Context) error {
	m.mu.Lock()
	m.allowRestarts = true
	pending := m.pendingRestart
	m.pendingRestart = false
	m.mu.Unlock()

	if !pending {
		return nil
	}
	return m.Restart(ctx)
}

// BulkUpdate applies a multi-key settings change with restarts suspended,
// then triggers exactly one restart.
func (m *Manager) BulkUpdate(ctx context.Context, apply func() error) error {
	m.SuspendRestarts()
	applyErr := apply()

	m.mu.Lock()
	m.pendingRestart = true
	m.mu.Unlock()

	if err := m.ResumeRestarts(ctx); err != nil {
		if applyErr != nil {
			return errors.Join(applyErr, err)
		}
		return err
	}
	return applyErr
}

// pump forwards backend notifications to the bus and handles connection
// termination.
func (m *Manager) pump(conn Connection) {
	for n := range conn.Notifications() {
		switch n.Method {
		case NotifyBuildStart:
			m.bus.Publish(events.EventBuildStart, nil)
		case NotifyBuildComplete:
			// A buildComplete without a payload is malformed but must not
			// kill the pump.
			if n.Build == nil {
				logging.Warn("ClientManager", "Dropping buildComplete notification without payload")
				continue
			}
			m.bus.Publish(events.EventBuildComplete, *n.Build)
		}
	}

	err := <-conn.Done()

	m.mu.Lock()
	current := m.conn == conn
	if current {
		m.conn = nil
	}
	m.mu.Unlock()

	// A connection we already replaced or stopped is not an error.
	if !current {
		return
	}

	if err != nil {
		m.tracker.set(StateErrored, &ConnectionError{Err: err})
	} else {
		m.tracker.set(StateErrored, &ConnectionError{Err: errors.New("backend exited unexpectedly")})
	}
}
