package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd starts the backend supervisor: it bootstraps the backend,
// establishes the long-lived connection and restarts it on settings
// changes until the process is terminated.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend supervisor",
	Long: `Bootstraps the documentation backend and keeps it running.

The supervisor resolves the runtime environment, installs or updates the
backend package according to the configured policy, launches the backend
process and restarts it whenever the settings file changes. It runs until
interrupted.

Install and update questions are asked on the terminal; declining a
required install or update turns the integration off for this run.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := buildApp(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
