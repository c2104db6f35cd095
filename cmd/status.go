package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"docbridge/internal/environment"
)

// newStatusCmd creates the command that reports the backend's current
// state: resolved environment, installed version, policy and schedule.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend environment and installation status",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	application, err := buildApp(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := application.Status(ctx)
	if err != nil && !errors.Is(err, environment.ErrNotFound) {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	enabled := text.FgGreen.Sprint("yes")
	if !st.Enabled {
		enabled = text.FgRed.Sprint("no")
	}
	t.AppendRow(table.Row{"enabled", enabled})

	envCell := text.FgRed.Sprint("not found")
	if len(st.Environment) > 0 {
		envCell = strings.Join(st.Environment, " ")
	}
	t.AppendRow(table.Row{"environment", envCell})

	installed := text.FgYellow.Sprint("not installed")
	if st.InstalledVersion != "" {
		installed = st.InstalledVersion
	}
	t.AppendRow(table.Row{"installed version", installed})
	t.AppendRow(table.Row{"minimum version", st.MinimumVersion})
	t.AppendRow(table.Row{"install behavior", st.InstallBehavior})
	t.AppendRow(table.Row{"update behavior", st.UpdateBehavior})
	t.AppendRow(table.Row{"update frequency", st.UpdateFrequency})
	t.AppendRow(table.Row{"last update check", st.LastUpdateCheck.Format("2006-01-02 15:04:05 MST")})
	t.Render()

	if errors.Is(err, environment.ErrNotFound) {
		fmt.Printf("%s %s\n", text.FgYellow.Sprint("!"), text.FgYellow.Sprint("No runtime environment found; configure server.pythonPath"))
	}
	return nil
}
