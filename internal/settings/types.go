package settings

// Install/update policy values. These mirror the user-facing settings
// surface one to one.
const (
	InstallNothing   = "nothing"
	InstallAutomatic = "automatic"
	InstallAsk       = "ask"
)

const (
	UpdateBehaviorAutomatic    = "automatic"
	UpdateBehaviorPromptAlways = "promptAlways"
	UpdateBehaviorPromptMajor  = "promptMajor"
)

const (
	UpdateFrequencyNever   = "never"
	UpdateFrequencyDaily   = "daily"
	UpdateFrequencyWeekly  = "weekly"
	UpdateFrequencyMonthly = "monthly"
)

// Settings is the top-level configuration for docbridge.
type Settings struct {
	// Enabled gates the whole integration. When false the client is
	// stopped and never restarted.
	Enabled bool `yaml:"enabled"`

	Server     ServerSettings     `yaml:"server"`
	SphinxLike SphinxLikeSettings `yaml:"sphinxLike"`
}

// ServerSettings configures how the backend is located, installed and run.
type ServerSettings struct {
	// PythonPath is the explicit environment command, overriding the
	// delegated interpreter lookup. The first element may use a leading
	// ${workspaceRoot} placeholder.
	PythonPath []string `yaml:"pythonPath,omitempty"`

	// PackageName is the PyPI distribution providing the backend.
	PackageName string `yaml:"packageName,omitempty"`

	// StartupModule is the module launched with -m for the long-lived
	// connection. Ignored when ScriptPath is set.
	StartupModule string `yaml:"startupModule,omitempty"`

	// ScriptPath launches the backend from a script instead of a module.
	ScriptPath string `yaml:"scriptPath,omitempty"`

	IncludedModules []string `yaml:"includedModules,omitempty"`
	ExcludedModules []string `yaml:"excludedModules,omitempty"`

	LogLevel                string `yaml:"logLevel,omitempty"`
	LogFilter               string `yaml:"logFilter,omitempty"`
	ShowDeprecationWarnings bool   `yaml:"showDeprecationWarnings,omitempty"`

	Completion CompletionSettings `yaml:"completion,omitempty"`

	// InstallBehavior: nothing | automatic | ask
	InstallBehavior string `yaml:"installBehavior,omitempty"`
	// UpdateBehavior: automatic | promptAlways | promptMajor
	UpdateBehavior string `yaml:"updateBehavior,omitempty"`
	// UpdateFrequency: never | daily | weekly | monthly
	UpdateFrequency string `yaml:"updateFrequency,omitempty"`
}

// CompletionSettings holds completion-behavior hints forwarded to the
// backend untouched.
type CompletionSettings struct {
	PreferredInsertBehavior string `yaml:"preferredInsertBehavior,omitempty"`
}

// SphinxLikeSettings is the backend-specific build configuration, forwarded
// in the initialization payload.
type SphinxLikeSettings struct {
	BuildCommand    []string          `yaml:"buildCommand,omitempty"`
	PythonCommand   []string          `yaml:"pythonCommand,omitempty"`
	Cwd             string            `yaml:"cwd,omitempty"`
	EnvPassthrough  []string          `yaml:"envPassthrough,omitempty"`
	ConfigOverrides map[string]string `yaml:"configOverrides,omitempty"`
	SrcDir          string            `yaml:"srcDir,omitempty"`
	BuildDir        string            `yaml:"buildDir,omitempty"`
	ConfDir         string            `yaml:"confDir,omitempty"`
	ForceFullBuild  bool              `yaml:"forceFullBuild,omitempty"`
	NumJobs         int               `yaml:"numJobs,omitempty"`
	Quiet           bool              `yaml:"quiet,omitempty"`
}

// GetDefaultSettings returns the default configuration.
func GetDefaultSettings() Settings {
	return Settings{
		Enabled: true,
		Server: ServerSettings{
			PackageName:     "docbridge-server",
			StartupModule:   "docbridge_server",
			LogLevel:        "error",
			InstallBehavior: InstallAsk,
			UpdateBehavior:  UpdateBehaviorPromptMajor,
			UpdateFrequency: UpdateFrequencyWeekly,
		},
	}
}
