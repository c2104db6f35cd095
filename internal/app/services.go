package app

import (
	"context"
	"sync"

	"docbridge/internal/bootstrap"
	"docbridge/internal/client"
	"docbridge/internal/environment"
	"docbridge/internal/events"
	"docbridge/internal/execx"
	"docbridge/internal/settings"
	"docbridge/internal/translate"
	"docbridge/internal/version"
	"docbridge/pkg/logging"
)

// Services holds the long-lived components of a running application. The
// orchestrator and resolver are rebuilt whenever settings change; everything
// else lives for the whole process.
type Services struct {
	Bus        *events.Bus
	Runner     execx.Runner
	Store      *bootstrap.FileStore
	State      *bootstrap.UpdateState
	Registry   bootstrap.Registry
	Manager    *client.Manager
	Translator *translate.Translator
	Watcher    *settings.Watcher

	minimum version.Version

	mu           sync.RWMutex
	settings     settings.Settings
	resolver     *environment.Resolver
	orchestrator *bootstrap.Orchestrator
}

// InitializeServices constructs and wires all application services from the
// given configuration and loaded settings.
func InitializeServices(cfg *Config, loaded settings.Settings, configPath string) (*Services, error) {
	minimum, err := version.Normalize(MinimumBackendVersion)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Bus:      events.NewBus(),
		Runner:   &execx.OSRunner{},
		Store:    bootstrap.NewFileStore(configPath),
		Registry: bootstrap.NewPyPIRegistry(),
		minimum:  minimum,
		settings: loaded,
	}
	s.State = bootstrap.NewUpdateState(s.Store, cfg.WorkspaceRoot)
	s.rebuild(cfg, configPath)

	s.Translator = &translate.Translator{
		Runner:  s.Runner,
		Package: loaded.Server.PackageName,
	}

	launcher := &client.ProcessLauncher{Dir: cfg.WorkspaceRoot}
	s.Manager = client.NewManager(s.Bus, launcher, s, s.Settings)

	return s, nil
}

// Settings returns a snapshot of the current settings.
func (s *Services) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Resolver returns the environment resolver built from the current
// settings.
func (s *Services) Resolver() *environment.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// UpdateSettings replaces the current settings and rebuilds the
// settings-derived components. The running connection is not touched;
// changes take effect through the restart the caller triggers.
func (s *Services) UpdateSettings(cfg *Config, configPath string, updated settings.Settings) {
	s.mu.Lock()
	s.settings = updated
	s.mu.Unlock()
	s.rebuild(cfg, configPath)
	s.Translator.Package = updated.Server.PackageName
}

// rebuild reconstructs the resolver and orchestrator from the current
// settings. A fresh orchestrator drops any stale in-flight join state along
// with the old policy values.
func (s *Services) rebuild(cfg *Config, configPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.settings
	prompter := cfg.Prompter
	if prompter == nil {
		prompter = declinePrompter{}
	}

	s.resolver = &environment.Resolver{
		ConfiguredCommand: current.Server.PythonPath,
		WorkspaceRoot:     cfg.WorkspaceRoot,
		Provider:          cfg.EnvironmentProvider,
	}

	installer := &bootstrap.Installer{
		Runner:   s.Runner,
		Prompter: prompter,
		State:    s.State,
		PersistDisable: func() error {
			return persistDisable(configPath)
		},
	}

	s.orchestrator = bootstrap.NewOrchestrator(bootstrap.Config{
		Resolver:        s.resolver,
		Runner:          s.Runner,
		Installer:       installer,
		Registry:        s.Registry,
		Prompter:        prompter,
		State:           s.State,
		Bus:             s.Bus,
		Package:         current.Server.PackageName,
		InstallBehavior: current.Server.InstallBehavior,
		UpdateBehavior:  current.Server.UpdateBehavior,
		UpdateFrequency: current.Server.UpdateFrequency,
		MinimumVersion:  s.minimum,
		RetryBudget:     -1,
	})
}

// Run implements client.Bootstrapper against the current orchestrator.
func (s *Services) Run(ctx context.Context) bootstrap.Outcome {
	s.mu.RLock()
	o := s.orchestrator
	s.mu.RUnlock()
	return o.Run(ctx)
}

// persistDisable flips the enabled flag off in the stored settings. The
// user asked to stop being bothered; this has to survive the process.
func persistDisable(configPath string) error {
	current, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	current.Enabled = false
	if err := settings.Save(configPath, current); err != nil {
		return err
	}
	logging.Info("App", "Integration disabled in %s", settings.SettingsFilePath(configPath))
	return nil
}
