package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docbridge/internal/app"
)

// newSelectDirCmd creates the command group for pointing the backend at its
// configuration, source and build directories.
func newSelectDirCmd() *cobra.Command {
	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Store a backend directory in the settings",
	}
	selectCmd.AddCommand(newSelectSubCmd("conf-dir", app.DirConf, "directory containing the backend's configuration file"))
	selectCmd.AddCommand(newSelectSubCmd("src-dir", app.DirSrc, "directory containing the documentation sources"))
	selectCmd.AddCommand(newSelectSubCmd("build-dir", app.DirBuild, "directory the backend writes build output to"))
	return selectCmd
}

func newSelectSubCmd(name string, kind app.DirKind, what string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " DIR",
		Short: "Store the " + what,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if info, err := os.Stat(dir); err != nil {
				return fmt.Errorf("cannot use %s: %w", dir, err)
			} else if !info.IsDir() {
				return fmt.Errorf("cannot use %s: not a directory", dir)
			}

			application, err := buildApp(false)
			if err != nil {
				return err
			}
			if err := application.SelectDir(kind, dir); err != nil {
				return err
			}
			fmt.Printf("Stored %s: %s\n", name, dir)
			return nil
		},
	}
}
