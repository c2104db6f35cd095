package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"

	"docbridge/internal/app"
)

// buildApp assembles an application from the persistent flags. Interactive
// commands get a terminal prompter; everything else declines prompts.
func buildApp(interactive bool) (*app.Application, error) {
	cfg := app.NewConfig(rootDebug, rootQuiet, rootConfigPath, rootWorkspaceRoot)
	if interactive {
		prompter := &terminalPrompter{}
		cfg.Prompter = prompter
		cfg.EnvironmentProvider = prompter
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

// withSpinner runs fn behind a terminal spinner unless quiet mode is on.
func withSpinner(suffix string, fn func() error) error {
	var s *spinner.Spinner
	if !rootQuiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " " + suffix
		s.Start()
	}

	err := fn()

	if s != nil {
		s.Stop()
	}
	if err != nil && s != nil {
		fmt.Println(text.FgRed.Sprint("✗ " + suffix + " failed"))
	}
	return err
}
