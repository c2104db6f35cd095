package app

import (
	"context"

	"docbridge/internal/bootstrap"
	"docbridge/internal/environment"
)

// MinimumBackendVersion is the oldest backend release this build can talk
// to. A backend below this version must be updated before a connection is
// established.
const MinimumBackendVersion = "1.0.0"

// Config holds the application configuration assembled by the CLI layer.
type Config struct {
	// Debug enables verbose logging across the application.
	Debug bool

	// Quiet suppresses all log output.
	Quiet bool

	// Custom configuration path (optional). When empty the default user
	// configuration directory is used.
	ConfigPath string

	// WorkspaceRoot is the workspace the backend serves. Empty means the
	// current working directory.
	WorkspaceRoot string

	// Prompter answers install and update questions. Nil declines every
	// question, which is the right behavior for non-interactive runs.
	Prompter bootstrap.Prompter

	// EnvironmentProvider is the optional delegated interpreter lookup,
	// consulted when no explicit environment is configured.
	EnvironmentProvider environment.Provider
}

// NewConfig creates a new application configuration.
func NewConfig(debug, quiet bool, configPath, workspaceRoot string) *Config {
	return &Config{
		Debug:         debug,
		Quiet:         quiet,
		ConfigPath:    configPath,
		WorkspaceRoot: workspaceRoot,
	}
}

// declinePrompter answers every question with a decline. It backs
// non-interactive invocations where prompting is impossible.
type declinePrompter struct{}

func (declinePrompter) AskInstall(context.Context, string) bootstrap.InstallChoice {
	return bootstrap.ChoiceDecline
}

func (declinePrompter) AskUpdate(context.Context, string, string, string) bootstrap.InstallChoice {
	return bootstrap.ChoiceDecline
}

func (declinePrompter) AskForcedUpdate(context.Context, string, string, string) bool {
	return false
}

func (declinePrompter) SelectEnvironment(context.Context) bool {
	return false
}
