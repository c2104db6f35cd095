package bootstrap

import (
	"context"

	"docbridge/internal/environment"
)

// NextAction threads user decisions back into the bootstrap retry loop.
type NextAction int

const (
	// ActionAbort stops the bootstrap with a terminal outcome.
	ActionAbort NextAction = iota
	// ActionRetry re-enters the loop from environment resolution,
	// consuming one unit of the retry budget.
	ActionRetry
	// ActionContinue proceeds with the current step.
	ActionContinue
)

func (a NextAction) String() string {
	switch a {
	case ActionAbort:
		return "abort"
	case ActionRetry:
		return "retry"
	case ActionContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// OutcomeKind discriminates the terminal bootstrap results.
type OutcomeKind int

const (
	// OutcomeReady means a validated, compatible backend is installed.
	OutcomeReady OutcomeKind = iota
	// OutcomeDeclined means the user chose not to proceed; the
	// integration is disabled for the session.
	OutcomeDeclined
	// OutcomeFailed means the bootstrap failed definitively.
	OutcomeFailed
)

// Outcome is the terminal result of a bootstrap run.
type Outcome struct {
	Kind OutcomeKind

	// Version is the validated backend version. Set only for OutcomeReady.
	Version string

	// Environment is the command the version was validated in. Set only
	// for OutcomeReady.
	Environment environment.Command

	// Reason is one of the Reason* constants. Set only for OutcomeFailed.
	Reason string

	// Err carries the underlying failure for diagnostics, if any.
	Err error
}

// Ready constructs a successful outcome.
func Ready(version string, env environment.Command) Outcome {
	return Outcome{Kind: OutcomeReady, Version: version, Environment: env}
}

// Declined constructs a user-declined outcome.
func Declined() Outcome {
	return Outcome{Kind: OutcomeDeclined}
}

// Failed constructs a failed outcome.
func Failed(reason string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason, Err: err}
}

// InstallChoice is the user's answer to an install/update prompt.
type InstallChoice int

const (
	// ChoiceProceed accepts the install or update.
	ChoiceProceed InstallChoice = iota
	// ChoiceDecline rejects it.
	ChoiceDecline
	// ChoiceSwitchEnvironment asks to reselect the environment and try
	// again.
	ChoiceSwitchEnvironment
	// ChoiceDisable rejects it and persists a disabled setting.
	ChoiceDisable
)

// Prompter is the user-interaction collaborator. Prompts block until the
// user decides; a dismissed prompt must be reported as ChoiceDecline.
type Prompter interface {
	// AskInstall asks whether to install the missing backend.
	AskInstall(ctx context.Context, pkg string) InstallChoice

	// AskUpdate asks whether to apply an available update.
	AskUpdate(ctx context.Context, pkg, current, latest string) InstallChoice

	// AskForcedUpdate asks for consent to a mandatory compatibility
	// update. The only choices are update (true) or disable for the
	// session (false).
	AskForcedUpdate(ctx context.Context, pkg, installed, minimum string) bool

	// SelectEnvironment asks the user to reselect the active environment
	// through the external integration. Returns false if nothing changed.
	SelectEnvironment(ctx context.Context) bool
}
