package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docbridge/internal/bootstrap"
	"docbridge/internal/client"
	"docbridge/internal/environment"
	"docbridge/pkg/logging"
)

// Exit codes for CLI commands. These are semantic so editor integrations
// and scripts can distinguish "the user said no" from real failures.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeBootstrapFailed indicates the backend could not be made ready.
	ExitCodeBootstrapFailed = 2
	// ExitCodeDeclined indicates the user declined a required install or update.
	ExitCodeDeclined = 3
	// ExitCodeNoEnvironment indicates no runtime environment could be resolved.
	ExitCodeNoEnvironment = 4
)

// rootCmd represents the base command for the docbridge application.
var rootCmd = &cobra.Command{
	Use:   "docbridge",
	Short: "Manage the documentation language backend",
	Long: `docbridge keeps the documentation language backend installed,
compatible and running: it resolves the runtime environment, negotiates the
backend version against the install/update policy and supervises the
long-lived backend connection.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "docbridge version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		if report := diagnosticsReport(err); report != "" {
			fmt.Fprint(os.Stderr, report)
		}
		os.Exit(getExitCode(err))
	}
}

// diagnosticsReport renders the recent log entries for a fatal bootstrap
// error. The buffer keeps entries below the configured filter level, so the
// report carries the DEBUG context the normal output suppressed.
func diagnosticsReport(err error) string {
	var bootErr *client.BootstrapError
	if !errors.As(err, &bootErr) || bootErr.Outcome.Kind != bootstrap.OutcomeFailed {
		return ""
	}
	entries := logging.Recent()
	if len(entries) == 0 {
		return ""
	}
	return "\nRecent diagnostics:\n" + logging.FormatDiagnostics(entries)
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if errors.Is(err, environment.ErrNotFound) {
		return ExitCodeNoEnvironment
	}

	var bootErr *client.BootstrapError
	if errors.As(err, &bootErr) {
		if bootErr.Outcome.Kind == bootstrap.OutcomeDeclined {
			return ExitCodeDeclined
		}
		return ExitCodeBootstrapFailed
	}

	return ExitCodeError
}

// Persistent flags shared by every command.
var (
	rootDebug         bool
	rootQuiet         bool
	rootConfigPath    string
	rootWorkspaceRoot string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable general debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootQuiet, "quiet", false, "Suppress log output")
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config-path", "", "Custom configuration directory path")
	rootCmd.PersistentFlags().StringVar(&rootWorkspaceRoot, "workspace-root", "", "Workspace directory the backend serves (default: current directory)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newRestartCmd())
	rootCmd.AddCommand(newBuildCommandCmd())
	rootCmd.AddCommand(newSetBuildCommandCmd())
	rootCmd.AddCommand(newSelectDirCmd())
}
