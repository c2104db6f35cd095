package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/coreos/go-systemd/v22/daemon"

	"docbridge/internal/bootstrap"
	"docbridge/internal/client"
	"docbridge/internal/events"
	"docbridge/internal/settings"
	"docbridge/pkg/logging"
)

// Application bootstraps and runs docbridge. It follows a two-phase
// initialization pattern:
//
//  1. Bootstrap phase: load settings, initialize logging, wire services
//  2. Execution phase: start the backend connection and react to settings
//     changes until the context is cancelled
type Application struct {
	config     *Config
	configPath string
	services   *Services

	// sessionDisabled is set when the user declines a required install or
	// update. It suppresses restarts until the process exits; only an
	// explicit new start clears it.
	sessionDisabled atomic.Bool
}

// NewApplication creates and initializes a new application instance. It
// configures logging, loads the settings file (missing means defaults) and
// wires all services. The returned application is ready for Run; nothing
// has been started yet.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.Quiet {
		logOutput = io.Discard
	}
	logging.InitForCLI(appLogLevel, logOutput)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = settings.GetDefaultConfigPathOrPanic()
	}

	if cfg.WorkspaceRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine workspace root: %w", err)
		}
		cfg.WorkspaceRoot = wd
	}

	loaded, err := settings.Load(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load settings from %s", configPath)
		return nil, fmt.Errorf("failed to load settings from %s: %w", configPath, err)
	}

	services, err := InitializeServices(cfg, loaded, configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app := &Application{
		config:     cfg,
		configPath: configPath,
		services:   services,
	}
	app.services.Bus.Subscribe(events.EventBootstrapOutcome, func(payload interface{}) {
		outcome, ok := payload.(bootstrap.Outcome)
		if ok && outcome.Kind == bootstrap.OutcomeDeclined {
			app.sessionDisabled.Store(true)
			logging.Info("App", "Backend setup declined; the integration stays off for this session")
		}
	})

	return app, nil
}

// Services exposes the wired services for command-level operations.
func (a *Application) Services() *Services {
	return a.services
}

// ConfigPath returns the resolved configuration directory.
func (a *Application) ConfigPath() string {
	return a.configPath
}

// Run starts the backend connection and blocks until the context is
// cancelled. Settings file changes restart the connection; a declined
// bootstrap leaves the process running but the integration off.
func (a *Application) Run(ctx context.Context) error {
	watcher := settings.NewWatcher(settings.WatcherConfig{
		ConfigPath: a.configPath,
		OnChange: func() {
			a.onSettingsChanged(ctx)
		},
	})
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch settings: %w", err)
	}
	defer watcher.Stop()
	a.services.Watcher = watcher

	if err := a.services.Manager.Start(ctx); err != nil {
		var bErr *client.BootstrapError
		if !errors.As(err, &bErr) {
			return err
		}
		// A failed or declined bootstrap is not fatal to the serve loop:
		// the user can fix the settings file and we restart from there.
		logging.Warn("App", "%v", err)
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("App", "Failed to notify service manager: %v", err)
	} else if sent {
		logging.Debug("App", "Notified service manager of readiness")
	}

	<-ctx.Done()

	daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.services.Manager.Stop()
	return nil
}

// onSettingsChanged reloads settings from disk and restarts the backend so
// the new configuration takes effect. Reload failures keep the previous
// settings and the running connection.
func (a *Application) onSettingsChanged(ctx context.Context) {
	updated, err := settings.Load(a.configPath)
	if err != nil {
		logging.Error("App", err, "Ignoring settings change: reload failed")
		return
	}

	a.services.UpdateSettings(a.config, a.configPath, updated)
	a.services.Bus.Publish(events.EventSettingsChanged, updated)
	logging.Info("App", "Settings changed, restarting backend")

	if a.sessionDisabled.Load() {
		logging.Debug("App", "Restart suppressed: integration declined for this session")
		return
	}
	if err := a.services.Manager.Restart(ctx); err != nil {
		logging.Error("App", err, "Restart after settings change failed")
	}
}

// NotifyEnvironmentChanged restarts the backend because the delegated
// interpreter selection changed. An explicit configured environment takes
// precedence, so the change is ignored while one is set.
func (a *Application) NotifyEnvironmentChanged(ctx context.Context) error {
	if len(a.services.Settings().Server.PythonPath) > 0 {
		logging.Debug("App", "Interpreter change ignored: explicit environment configured")
		return nil
	}
	if a.sessionDisabled.Load() {
		return nil
	}
	logging.Info("App", "Active interpreter changed, restarting backend")
	return a.services.Manager.Restart(ctx)
}
