package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"docbridge/internal/bootstrap"
	"docbridge/internal/environment"
)

// terminalPrompter asks install/update questions on the terminal. Any read
// error, interrupt or EOF counts as a decline: an unanswerable question
// must never block or silently proceed.
type terminalPrompter struct {
	// override is the interpreter command typed at the last environment
	// reselection. It doubles as an environment.Provider.
	mu       sync.Mutex
	override environment.Command
}

var _ bootstrap.Prompter = (*terminalPrompter)(nil)
var _ environment.Provider = (*terminalPrompter)(nil)

func (p *terminalPrompter) AskInstall(ctx context.Context, pkg string) bootstrap.InstallChoice {
	fmt.Printf("The backend package %q is not installed in the selected environment.\n", pkg)
	return p.askChoice("Install it? [y]es / [n]o / [s]witch environment / [d]isable: ")
}

func (p *terminalPrompter) AskUpdate(ctx context.Context, pkg, current, latest string) bootstrap.InstallChoice {
	fmt.Printf("An update for %q is available: %s -> %s\n", pkg, current, latest)
	return p.askChoice("Update now? [y]es / [n]o / [s]witch environment / [d]isable: ")
}

func (p *terminalPrompter) AskForcedUpdate(ctx context.Context, pkg, installed, minimum string) bool {
	fmt.Printf("The installed %q version %s is older than the minimum supported version %s.\n", pkg, installed, minimum)
	line, err := p.readLine("Update now? [y/N]: ")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(line), "y")
}

func (p *terminalPrompter) SelectEnvironment(ctx context.Context) bool {
	line, err := p.readLine("Enter an interpreter command (empty to cancel): ")
	if err != nil || strings.TrimSpace(line) == "" {
		return false
	}
	p.mu.Lock()
	p.override = strings.Fields(line)
	p.mu.Unlock()
	return true
}

// Interpreter implements environment.Provider with the command typed at the
// last reselection.
func (p *terminalPrompter) Interpreter(ctx context.Context, scopeHint string) (environment.Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.override) == 0 {
		return nil, environment.ErrNotFound
	}
	return p.override, nil
}

func (p *terminalPrompter) askChoice(prompt string) bootstrap.InstallChoice {
	line, err := p.readLine(prompt)
	if err != nil {
		return bootstrap.ChoiceDecline
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return bootstrap.ChoiceProceed
	case "s", "switch":
		return bootstrap.ChoiceSwitchEnvironment
	case "d", "disable":
		return bootstrap.ChoiceDisable
	default:
		return bootstrap.ChoiceDecline
	}
}

func (p *terminalPrompter) readLine(prompt string) (string, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return "", err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err == readline.ErrInterrupt || err == io.EOF {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("readline error: %w", err)
	}
	return line, nil
}
