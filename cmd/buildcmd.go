package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newBuildCommandCmd creates the command that renders the stored build
// configuration as the backend's native command line. The translation is
// done by the backend itself, so the output always matches its grammar.
func newBuildCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build-command",
		Short: "Print the configured build settings as a backend command line",
		Args:  cobra.NoArgs,
		RunE:  runBuildCommand,
	}
}

func runBuildCommand(cmd *cobra.Command, args []string) error {
	application, err := buildApp(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	line, err := application.BuildCommandString(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

// newSetBuildCommandCmd creates the command that parses a backend command
// line and stores the result as the build configuration.
func newSetBuildCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-build-command [args...]",
		Short: "Parse a backend command line and store it as the build settings",
		Long: `Hands the given arguments to the backend for parsing and stores the
resulting configuration in the settings file. Arguments the backend rejects
are rejected here; there is no local reimplementation of its grammar.

Separate docbridge's own flags from the backend arguments with --:

  docbridge set-build-command -- -M dirhtml docs docs/_build -j auto`,
		Args: cobra.ArbitraryArgs,
		RunE: runSetBuildCommand,
	}
}

func runSetBuildCommand(cmd *cobra.Command, args []string) error {
	application, err := buildApp(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := application.SetBuildCommand(ctx, args); err != nil {
		return err
	}
	fmt.Println("Build command stored.")
	return nil
}
