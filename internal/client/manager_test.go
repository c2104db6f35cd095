package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbridge/internal/bootstrap"
	"docbridge/internal/environment"
	"docbridge/internal/events"
	"docbridge/internal/settings"
)

// fakeConnection is a scriptable Connection.
type fakeConnection struct {
	id            string
	notifications chan Notification
	done          chan error

	mu     sync.Mutex
	closed bool
}

func newFakeConnection(id string) *fakeConnection {
	return &fakeConnection{
		id:            id,
		notifications: make(chan Notification, 16),
		done:          make(chan error, 1),
	}
}

func (c *fakeConnection) ID() string                         { return c.id }
func (c *fakeConnection) Notifications() <-chan Notification { return c.notifications }
func (c *fakeConnection) Done() <-chan error                 { return c.done }

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.notifications)
	c.done <- nil
	close(c.done)
	return nil
}

// crash simulates the backend dying on its own.
func (c *fakeConnection) crash(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.notifications)
	c.done <- err
	close(c.done)
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeLauncher hands out fake connections and records launches.
type fakeLauncher struct {
	mu       sync.Mutex
	launches []LaunchSpec
	conns    []*fakeConnection
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context, spec LaunchSpec) (Connection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.launches = append(l.launches, spec)
	conn := newFakeConnection("conn-" + string(rune('a'+len(l.conns))))
	l.conns = append(l.conns, conn)
	return conn, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launches)
}

func (l *fakeLauncher) lastConn() *fakeConnection {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.conns) == 0 {
		return nil
	}
	return l.conns[len(l.conns)-1]
}

// fakeBootstrapper returns a scripted outcome.
type fakeBootstrapper struct {
	mu      sync.Mutex
	outcome bootstrap.Outcome
	runs    int
}

func (b *fakeBootstrapper) Run(ctx context.Context) bootstrap.Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs++
	return b.outcome
}

type managerFixture struct {
	bus      *events.Bus
	launcher *fakeLauncher
	boot     *fakeBootstrapper
	cfg      settings.Settings
	manager  *Manager
}

func newManagerFixture() *managerFixture {
	f := &managerFixture{
		bus:      events.NewBus(),
		launcher: &fakeLauncher{},
		boot: &fakeBootstrapper{
			outcome: bootstrap.Ready("1.5.0", environment.Command{"/usr/bin/python3"}),
		},
		cfg: settings.GetDefaultSettings(),
	}
	f.manager = NewManager(f.bus, f.launcher, f.boot, func() settings.Settings { return f.cfg })
	return f
}

func TestStartReachesRunning(t *testing.T) {
	f := newManagerFixture()

	var transitions []State
	f.bus.Subscribe(events.EventClientStateChanged, func(payload interface{}) {
		transitions = append(transitions, payload.(StateChange).New)
	})

	require.NoError(t, f.manager.Start(context.Background()))

	assert.Equal(t, StateRunning, f.manager.State())
	assert.Equal(t, []State{StateStarting, StateRunning}, transitions)
	assert.Equal(t, 1, f.launcher.launchCount())
}

func TestStartBuildsLaunchCommand(t *testing.T) {
	f := newManagerFixture()
	f.cfg.Server.IncludedModules = []string{"extras"}
	f.cfg.Server.ExcludedModules = []string{"legacy", "slow"}

	require.NoError(t, f.manager.Start(context.Background()))

	spec := f.launcher.launches[0]
	assert.Equal(t, []string{
		"/usr/bin/python3", "-m", "docbridge_server",
		"--include", "extras",
		"--exclude", "legacy", "--exclude", "slow",
	}, spec.Argv)
	assert.Equal(t, "error", spec.Payload.Server.LogLevel)
}

func TestStartScriptPathOverridesModule(t *testing.T) {
	f := newManagerFixture()
	f.cfg.Server.ScriptPath = "/opt/backend/serve.py"

	require.NoError(t, f.manager.Start(context.Background()))

	assert.Equal(t,
		[]string{"/usr/bin/python3", "/opt/backend/serve.py"},
		f.launcher.launches[0].Argv)
}

func TestStartBootstrapFailureStaysStopped(t *testing.T) {
	f := newManagerFixture()
	f.boot.outcome = bootstrap.Failed(bootstrap.ReasonIncompatible, errors.New("too old"))

	err := f.manager.Start(context.Background())

	var bootErr *BootstrapError
	require.ErrorAs(t, err, &bootErr)
	assert.Equal(t, StateStopped, f.manager.State())
	assert.Zero(t, f.launcher.launchCount(), "no connection until a compatible backend exists")
}

func TestStartDeclinedStaysStopped(t *testing.T) {
	f := newManagerFixture()
	f.boot.outcome = bootstrap.Declined()

	err := f.manager.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateStopped, f.manager.State())
	assert.Zero(t, f.launcher.launchCount())
}

func TestStartLaunchFailureErrored(t *testing.T) {
	f := newManagerFixture()
	f.launcher.err = errors.New("spawn failed")

	err := f.manager.Start(context.Background())

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, StateErrored, f.manager.State())
}

func TestStartWhileRunningRejected(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))

	err := f.manager.Start(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, f.launcher.launchCount())
}

func TestStartWhileDisabledDoesNothing(t *testing.T) {
	f := newManagerFixture()
	f.cfg.Enabled = false

	require.NoError(t, f.manager.Start(context.Background()))

	assert.Equal(t, StateStopped, f.manager.State())
	assert.Zero(t, f.boot.runs)
}

func TestStopIdempotent(t *testing.T) {
	f := newManagerFixture()

	transitions := 0
	f.bus.Subscribe(events.EventClientStateChanged, func(interface{}) { transitions++ })

	f.manager.Stop()
	f.manager.Stop()

	assert.Equal(t, StateStopped, f.manager.State())
	assert.Zero(t, transitions, "stopping a stopped client must be a no-op")
}

func TestStopTerminatesConnection(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))
	conn := f.launcher.lastConn()

	f.manager.Stop()

	assert.True(t, conn.isClosed())
	assert.Equal(t, StateStopped, f.manager.State())
}

func TestBuildNotificationsFanOut(t *testing.T) {
	f := newManagerFixture()

	started := make(chan struct{}, 1)
	completed := make(chan BuildComplete, 1)
	f.bus.Subscribe(events.EventBuildStart, func(interface{}) { started <- struct{}{} })
	f.bus.Subscribe(events.EventBuildComplete, func(payload interface{}) {
		completed <- payload.(BuildComplete)
	})

	require.NoError(t, f.manager.Start(context.Background()))
	conn := f.launcher.lastConn()

	conn.notifications <- Notification{Method: NotifyBuildStart}
	conn.notifications <- Notification{
		Method: NotifyBuildComplete,
		Build:  &BuildComplete{Error: false, Warnings: 3},
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("buildStart not delivered")
	}
	select {
	case build := <-completed:
		assert.Equal(t, 3, build.Warnings)
		assert.False(t, build.Error)
	case <-time.After(time.Second):
		t.Fatal("buildComplete not delivered")
	}
}

func TestBuildCompleteWithoutPayloadDropped(t *testing.T) {
	f := newManagerFixture()

	completed := make(chan BuildComplete, 1)
	f.bus.Subscribe(events.EventBuildComplete, func(payload interface{}) {
		completed <- payload.(BuildComplete)
	})

	require.NoError(t, f.manager.Start(context.Background()))
	conn := f.launcher.lastConn()

	// A malformed buildComplete without a payload must not kill the pump;
	// the following well-formed notification still gets through.
	conn.notifications <- Notification{Method: NotifyBuildComplete}
	conn.notifications <- Notification{
		Method: NotifyBuildComplete,
		Build:  &BuildComplete{Warnings: 1},
	}

	select {
	case build := <-completed:
		assert.Equal(t, 1, build.Warnings)
	case <-time.After(time.Second):
		t.Fatal("buildComplete not delivered after malformed notification")
	}
	assert.Equal(t, StateRunning, f.manager.State())
}

func TestConnectionCrashTransitionsToErrored(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))
	conn := f.launcher.lastConn()

	conn.crash(errors.New("exit status 2"))

	require.Eventually(t, func() bool {
		return f.manager.State() == StateErrored
	}, time.Second, 10*time.Millisecond)

	var connErr *ConnectionError
	assert.ErrorAs(t, f.manager.LastError(), &connErr)
}

func TestRestartStopsBeforeStarting(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))
	first := f.launcher.lastConn()

	require.NoError(t, f.manager.Restart(context.Background()))

	assert.True(t, first.isClosed(), "old connection must be fully stopped first")
	assert.Equal(t, 2, f.launcher.launchCount())
	assert.Equal(t, StateRunning, f.manager.State())
}

func TestRestartWhileDisabledOnlyStops(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))
	f.cfg.Enabled = false

	require.NoError(t, f.manager.Restart(context.Background()))

	assert.Equal(t, StateStopped, f.manager.State())
	assert.Equal(t, 1, f.launcher.launchCount(), "no restart while disabled")
}

func TestSuspendedRestartsCoalesce(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))

	f.manager.SuspendRestarts()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.manager.Restart(context.Background()))
	}
	assert.Equal(t, 1, f.launcher.launchCount(), "no restart while suspended")

	require.NoError(t, f.manager.ResumeRestarts(context.Background()))

	assert.Equal(t, 2, f.launcher.launchCount(), "exactly one coalesced restart")
	assert.Equal(t, StateRunning, f.manager.State())
}

func TestResumeWithoutPendingRestartDoesNothing(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))

	f.manager.SuspendRestarts()
	require.NoError(t, f.manager.ResumeRestarts(context.Background()))

	assert.Equal(t, 1, f.launcher.launchCount())
}

func TestBulkUpdateTriggersOneRestart(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Start(context.Background()))

	applied := 0
	err := f.manager.BulkUpdate(context.Background(), func() error {
		// Several settings keys change; each would normally restart.
		for i := 0; i < 3; i++ {
			applied++
			_ = f.manager.Restart(context.Background())
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Equal(t, 2, f.launcher.launchCount(), "one initial start plus one coalesced restart")
}
