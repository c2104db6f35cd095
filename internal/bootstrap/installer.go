package bootstrap

import (
	"context"
	"time"

	"docbridge/internal/environment"
	"docbridge/internal/execx"
	"docbridge/internal/settings"
	"docbridge/pkg/logging"
)

// Installer executes install and update commands in the resolved
// environment and translates install-policy decisions into NextAction
// values for the orchestrator loop.
type Installer struct {
	Runner   execx.Runner
	Prompter Prompter
	State    *UpdateState

	// PersistDisable permanently disables the integration in the user's
	// settings. Invoked when the user picks "disable" at an install prompt.
	PersistDisable func() error

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func (i *Installer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Install installs the backend package into the environment. A completed
// install refreshes the persisted last-update timestamp: the environment is
// fresh for scheduling purposes regardless of how it got there.
func (i *Installer) Install(ctx context.Context, env environment.Command, pkg string) error {
	return i.runPip(ctx, "install", env, []string{"-m", "pip", "install", pkg})
}

// Update upgrades the backend package in the environment. Like Install, a
// completed update refreshes the last-update timestamp.
func (i *Installer) Update(ctx context.Context, env environment.Command, pkg string) error {
	return i.runPip(ctx, "update", env, []string{"-m", "pip", "install", "--upgrade", pkg})
}

func (i *Installer) runPip(ctx context.Context, operation string, env environment.Command, args []string) error {
	argv := append(append([]string{}, env...), args...)

	logging.Info("Installer", "Running %s: %v", operation, argv)
	result, err := i.Runner.Run(ctx, argv, nil)
	if err != nil {
		logging.Error("Installer", err, "Backend %s failed", operation)
		return &InstallError{Operation: operation, Output: result.Output(), Err: err}
	}

	i.State.Refresh(i.now())
	logging.Info("Installer", "Backend %s completed", operation)
	return nil
}

// DecideInstall maps the install-behavior setting, and where required the
// user's answer, to the orchestrator's next action.
func (i *Installer) DecideInstall(ctx context.Context, behavior, pkg string) NextAction {
	switch behavior {
	case settings.InstallNothing:
		return ActionAbort
	case settings.InstallAutomatic:
		return ActionContinue
	}

	// "ask" and anything unrecognized: put the decision to the user.
	return i.actionForChoice(ctx, i.Prompter.AskInstall(ctx, pkg))
}

// DecideUpdate asks the user about an available update and maps the answer
// to the orchestrator's next action. The caller has already determined that
// a prompt is warranted.
func (i *Installer) DecideUpdate(ctx context.Context, pkg, current, latest string) NextAction {
	return i.actionForChoice(ctx, i.Prompter.AskUpdate(ctx, pkg, current, latest))
}

func (i *Installer) actionForChoice(ctx context.Context, choice InstallChoice) NextAction {
	switch choice {
	case ChoiceProceed:
		return ActionContinue
	case ChoiceSwitchEnvironment:
		if i.Prompter.SelectEnvironment(ctx) {
			return ActionRetry
		}
		// Nothing changed; retrying would resolve the same environment.
		return ActionAbort
	case ChoiceDisable:
		if i.PersistDisable != nil {
			if err := i.PersistDisable(); err != nil {
				logging.Warn("Installer", "Failed to persist disabled setting: %v", err)
			}
		}
		return ActionAbort
	default:
		return ActionAbort
	}
}
