package client

import (
	"docbridge/internal/environment"
	"docbridge/internal/settings"
)

// ServerConfig is the server half of the initialization payload, mirroring
// the user-facing settings field for field.
type ServerConfig struct {
	LogLevel                string           `json:"logLevel,omitempty"`
	LogFilter               string           `json:"logFilter,omitempty"`
	ShowDeprecationWarnings bool             `json:"showDeprecationWarnings,omitempty"`
	Completion              CompletionConfig `json:"completion,omitempty"`
}

// CompletionConfig carries completion-behavior hints for the backend.
type CompletionConfig struct {
	PreferredInsertBehavior string `json:"preferredInsertBehavior,omitempty"`
}

// BackendConfig is the backend-specific build configuration half of the
// initialization payload. It is also the structured side of the CLI↔config
// translation.
type BackendConfig struct {
	BuildCommand    []string          `json:"buildCommand,omitempty"`
	PythonCommand   []string          `json:"pythonCommand,omitempty"`
	Cwd             string            `json:"cwd,omitempty"`
	EnvPassthrough  []string          `json:"envPassthrough,omitempty"`
	ConfigOverrides map[string]string `json:"configOverrides,omitempty"`
	SrcDir          string            `json:"srcDir,omitempty"`
	BuildDir        string            `json:"buildDir,omitempty"`
	ConfDir         string            `json:"confDir,omitempty"`
	ForceFullBuild  bool              `json:"forceFullBuild,omitempty"`
	NumJobs         int               `json:"numJobs,omitempty"`
	Quiet           bool              `json:"quiet,omitempty"`
}

// InitPayload is sent once per connection start.
type InitPayload struct {
	Server     ServerConfig  `json:"server"`
	SphinxLike BackendConfig `json:"sphinxLike"`
}

// BuildInitPayload constructs the initialization configuration from the
// current settings. It is rebuilt on every (re)start; there is no in-place
// reconfiguration of a running connection.
func BuildInitPayload(cfg settings.Settings) InitPayload {
	return InitPayload{
		Server: ServerConfig{
			LogLevel:                cfg.Server.LogLevel,
			LogFilter:               cfg.Server.LogFilter,
			ShowDeprecationWarnings: cfg.Server.ShowDeprecationWarnings,
			Completion: CompletionConfig{
				PreferredInsertBehavior: cfg.Server.Completion.PreferredInsertBehavior,
			},
		},
		SphinxLike: BackendConfigFromSettings(cfg.SphinxLike),
	}
}

// BackendConfigFromSettings maps the settings shape onto the wire shape.
func BackendConfigFromSettings(s settings.SphinxLikeSettings) BackendConfig {
	return BackendConfig{
		BuildCommand:    s.BuildCommand,
		PythonCommand:   s.PythonCommand,
		Cwd:             s.Cwd,
		EnvPassthrough:  s.EnvPassthrough,
		ConfigOverrides: s.ConfigOverrides,
		SrcDir:          s.SrcDir,
		BuildDir:        s.BuildDir,
		ConfDir:         s.ConfDir,
		ForceFullBuild:  s.ForceFullBuild,
		NumJobs:         s.NumJobs,
		Quiet:           s.Quiet,
	}
}

// BuildLaunchArgs assembles the backend launch command: the environment
// command, then the module or script invocation, then the module
// include/exclude flags.
func BuildLaunchArgs(env environment.Command, cfg settings.Settings) []string {
	argv := append([]string{}, env...)

	if cfg.Server.ScriptPath != "" {
		argv = append(argv, cfg.Server.ScriptPath)
	} else {
		argv = append(argv, "-m", cfg.Server.StartupModule)
	}

	for _, mod := range cfg.Server.IncludedModules {
		argv = append(argv, "--include", mod)
	}
	for _, mod := range cfg.Server.ExcludedModules {
		argv = append(argv, "--exclude", mod)
	}
	return argv
}
