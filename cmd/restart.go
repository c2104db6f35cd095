package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"docbridge/internal/settings"
)

// newRestartCmd creates the command that asks a running supervisor to
// restart its backend. The supervisor watches the settings file, so
// rewriting it unchanged is the restart signal.
func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Ask a running supervisor to restart the backend",
		Long: `Rewrites the settings file without changing it. A running serve
process watches the file and restarts its backend connection on any write.`,
		Args: cobra.NoArgs,
		RunE: runRestart,
	}
}

func runRestart(cmd *cobra.Command, args []string) error {
	configPath := rootConfigPath
	if configPath == "" {
		configPath = settings.GetDefaultConfigPathOrPanic()
	}

	current, err := settings.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := settings.Save(configPath, current); err != nil {
		return fmt.Errorf("failed to rewrite settings: %w", err)
	}

	fmt.Println("Restart requested.")
	return nil
}
