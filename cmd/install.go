package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newInstallCmd creates the command that installs the backend package into
// the resolved environment, regardless of the configured install policy.
func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the backend package into the resolved environment",
		Args:  cobra.NoArgs,
		RunE:  runInstall,
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	application, err := buildApp(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := withSpinner("Installing backend...", func() error {
		return application.InstallServer(ctx)
	}); err != nil {
		return err
	}

	fmt.Println("Backend installed.")
	return nil
}

// newUpdateCmd creates the command that updates the backend package in the
// resolved environment, regardless of the update schedule.
func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update the backend package to the latest release",
		Args:  cobra.NoArgs,
		RunE:  runUpdate,
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	application, err := buildApp(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := withSpinner("Updating backend...", func() error {
		return application.UpdateServer(ctx)
	}); err != nil {
		return err
	}

	fmt.Println("Backend updated.")
	return nil
}
