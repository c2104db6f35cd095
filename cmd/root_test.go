package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"docbridge/internal/bootstrap"
	"docbridge/internal/client"
	"docbridge/internal/environment"
	"docbridge/pkg/logging"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
	if GetVersion() != testVersion {
		t.Errorf("Expected GetVersion to return %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "docbridge" {
		t.Errorf("Expected Use to be 'docbridge', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "docbridge version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})

	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}
	if !strings.Contains(buf.String(), "docbridge version 1.0.0") {
		t.Errorf("Unexpected version output: %q", buf.String())
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
		{
			name: "no environment",
			err:  fmt.Errorf("resolving: %w", environment.ErrNotFound),
			want: ExitCodeNoEnvironment,
		},
		{
			name: "bootstrap failed",
			err:  &client.BootstrapError{Outcome: bootstrap.Failed(bootstrap.ReasonInstallFailed, errors.New("pip exploded"))},
			want: ExitCodeBootstrapFailed,
		},
		{
			name: "bootstrap declined",
			err:  &client.BootstrapError{Outcome: bootstrap.Declined()},
			want: ExitCodeDeclined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDiagnosticsReportForFailedBootstrap(t *testing.T) {
	logging.InitForCLI(logging.LevelError, io.Discard)
	logging.Warn("Bootstrap", "pip install exploded")

	report := diagnosticsReport(&client.BootstrapError{
		Outcome: bootstrap.Failed(bootstrap.ReasonInstallFailed, errors.New("exit status 1")),
	})

	if !strings.Contains(report, "Recent diagnostics:") {
		t.Errorf("Expected report header, got: %q", report)
	}
	// The ring buffer keeps suppressed entries, so the WARN shows up even
	// though the CLI filter level is ERROR.
	if !strings.Contains(report, "pip install exploded") {
		t.Errorf("Expected suppressed warning in report, got: %q", report)
	}
}

func TestDiagnosticsReportOnlyForFailedBootstrap(t *testing.T) {
	logging.InitForCLI(logging.LevelError, io.Discard)
	logging.Warn("Bootstrap", "some context")

	if report := diagnosticsReport(errors.New("boom")); report != "" {
		t.Errorf("Expected no report for a generic error, got: %q", report)
	}
	declined := &client.BootstrapError{Outcome: bootstrap.Declined()}
	if report := diagnosticsReport(declined); report != "" {
		t.Errorf("Expected no report for a declined bootstrap, got: %q", report)
	}
}

func TestRegisteredSubcommands(t *testing.T) {
	expected := []string{
		"serve", "status", "install", "update", "restart",
		"build-command", "set-build-command", "select",
		"version", "self-update",
	}
	for _, name := range expected {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}
