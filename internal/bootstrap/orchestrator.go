package bootstrap

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"docbridge/internal/environment"
	"docbridge/internal/events"
	"docbridge/internal/execx"
	"docbridge/internal/version"
	"docbridge/pkg/logging"
)

// DefaultRetryBudget is the number of extra attempts after the first. The
// budget keeps "switch environment and try again" loops bounded: once it is
// exhausted the orchestrator fails closed instead of prompting forever.
const DefaultRetryBudget = 1

// Config wires an Orchestrator.
type Config struct {
	Resolver  *environment.Resolver
	Runner    execx.Runner
	Installer *Installer
	Registry  Registry
	Prompter  Prompter
	State     *UpdateState
	Bus       *events.Bus

	// Package is the PyPI distribution / probe module name.
	Package string

	InstallBehavior string
	UpdateBehavior  string
	UpdateFrequency string

	// MinimumVersion is the hard minimum this client is compatible with.
	MinimumVersion version.Version

	// RetryBudget overrides DefaultRetryBudget when non-negative.
	RetryBudget int

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

// Orchestrator drives environment resolution, version negotiation and
// install/update policy to a terminal Outcome. Only one run is in flight at
// a time; concurrent Run calls join the pending one.
type Orchestrator struct {
	cfg Config
	sf  singleflight.Group
}

// NewOrchestrator creates an orchestrator from the given configuration.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.RetryBudget < 0 {
		cfg.RetryBudget = DefaultRetryBudget
	}
	return &Orchestrator{cfg: cfg}
}

func (o *Orchestrator) now() time.Time {
	if o.cfg.Now != nil {
		return o.cfg.Now()
	}
	return time.Now()
}

// Run executes the bootstrap and returns its terminal outcome. A Run issued
// while another is pending receives the pending run's outcome instead of
// starting a second one.
func (o *Orchestrator) Run(ctx context.Context) Outcome {
	v, _, _ := o.sf.Do("bootstrap", func() (interface{}, error) {
		outcome := o.run(ctx)
		// Publishing here keeps the event at one per run; joined callers
		// receive the outcome without re-announcing it.
		if o.cfg.Bus != nil {
			o.cfg.Bus.Publish(events.EventBootstrapOutcome, outcome)
		}
		return outcome, nil
	})
	return v.(Outcome)
}

// run is the bounded retry loop. Each pass is one full attempt from
// environment resolution onward; ActionRetry consumes one unit of budget.
func (o *Orchestrator) run(ctx context.Context) Outcome {
	var last Outcome
	for attempt := 0; attempt <= o.cfg.RetryBudget; attempt++ {
		if attempt > 0 {
			logging.Info("Bootstrap", "Retrying bootstrap (attempt %d of %d)", attempt+1, o.cfg.RetryBudget+1)
		}
		outcome, action := o.attempt(ctx)
		if action != ActionRetry {
			return outcome
		}
		last = outcome
	}

	// Budget exhausted: fail closed with the last provisional failure
	// rather than prompting again.
	logging.Warn("Bootstrap", "Retry budget exhausted, failing closed")
	return last
}

func (o *Orchestrator) attempt(ctx context.Context) (Outcome, NextAction) {
	// Step 1: resolve the environment.
	env, err := o.cfg.Resolver.Resolve(ctx, "")
	if err != nil {
		logging.Warn("Bootstrap", "No environment resolved: %v", err)
		if o.cfg.Prompter != nil && o.cfg.Prompter.SelectEnvironment(ctx) {
			return Failed(ReasonNoEnvironment, err), ActionRetry
		}
		return Failed(ReasonNoEnvironment, err), ActionAbort
	}

	// Step 2: query the installed version.
	installed, probeOK := o.probe(ctx, env)
	if !probeOK {
		action := o.cfg.Installer.DecideInstall(ctx, o.cfg.InstallBehavior, o.cfg.Package)
		switch action {
		case ActionRetry:
			return Failed(ReasonNotInstalled, errors.New("backend is not installed")), ActionRetry
		case ActionAbort:
			return Failed(ReasonNotInstalled, errors.New("backend is not installed")), ActionAbort
		}

		if err := o.cfg.Installer.Install(ctx, env, o.cfg.Package); err != nil {
			return Failed(ReasonInstallFailed, err), ActionAbort
		}
		installed, probeOK = o.probe(ctx, env)
		if !probeOK {
			return Failed(ReasonNotInstalled, errors.New("backend missing after install")), ActionAbort
		}
	}

	// Step 3: normalize and enforce the hard minimum.
	current, err := version.Normalize(installed)
	if err != nil {
		return Failed(ReasonVersionParse, &ProbeError{Output: installed, Err: err}), ActionAbort
	}

	if !version.SatisfiesMinimum(current, o.cfg.MinimumVersion) {
		outcome, action := o.forceUpdate(ctx, env, current)
		if action != ActionContinue {
			return outcome, action
		}
		current = version.MustNormalize(outcome.Version)
	} else {
		// Step 4: soft update-policy check. Every failure on this path is
		// non-fatal and keeps the current version, but an environment
		// reselection at the prompt re-enters the loop.
		next, action := o.softUpdate(ctx, env, current)
		if action == ActionRetry {
			return Failed(ReasonNoEnvironment, errors.New("environment reselected at update prompt")), ActionRetry
		}
		current = next
	}

	logging.Info("Bootstrap", "Backend ready at version %s", current)
	return Ready(current.String(), env), ActionContinue
}

// forceUpdate handles an installed version below the hard minimum. Policy is
// ignored: the only choices are an explicit consented update or disabling
// the integration for the session.
func (o *Orchestrator) forceUpdate(ctx context.Context, env environment.Command, current version.Version) (Outcome, NextAction) {
	incompatible := &IncompatibleVersionError{
		Installed: current.String(),
		Minimum:   o.cfg.MinimumVersion.String(),
	}
	logging.Warn("Bootstrap", "%v", incompatible)

	if !o.cfg.Prompter.AskForcedUpdate(ctx, o.cfg.Package, current.String(), o.cfg.MinimumVersion.String()) {
		logging.Info("Bootstrap", "User declined compatibility update, disabling for this session")
		return Declined(), ActionAbort
	}

	if err := o.cfg.Installer.Update(ctx, env, o.cfg.Package); err != nil {
		return Failed(ReasonUpdateFailed, err), ActionAbort
	}

	installed, ok := o.probe(ctx, env)
	if !ok {
		return Failed(ReasonNotInstalled, errors.New("backend missing after update")), ActionAbort
	}
	updated, err := version.Normalize(installed)
	if err != nil {
		return Failed(ReasonVersionParse, &ProbeError{Output: installed, Err: err}), ActionAbort
	}
	if !version.SatisfiesMinimum(updated, o.cfg.MinimumVersion) {
		return Failed(ReasonIncompatible, incompatible), ActionAbort
	}

	return Outcome{Kind: OutcomeReady, Version: updated.String(), Environment: env}, ActionContinue
}

// softUpdate runs the best-effort policy-driven update check. It returns
// the version to proceed with and ActionContinue, or ActionRetry when the
// user reselected the environment at the update prompt.
func (o *Orchestrator) softUpdate(ctx context.Context, env environment.Command, current version.Version) (version.Version, NextAction) {
	if o.cfg.Registry == nil {
		return current, ActionContinue
	}
	if !IsCheckDue(o.cfg.UpdateFrequency, o.now(), o.cfg.State.LastUpdate()) {
		return current, ActionContinue
	}

	raw, err := o.cfg.Registry.LatestVersion(ctx, o.cfg.Package)
	if err != nil {
		// Soft-fail: the current version is kept and no error surfaces.
		logging.Warn("Bootstrap", "Update check failed, keeping %s: %v", current, err)
		return current, ActionContinue
	}

	// A completed check counts as an update for scheduling purposes.
	o.cfg.State.Refresh(o.now())

	latest, err := version.Normalize(raw)
	if err != nil {
		logging.Warn("Bootstrap", "Registry returned unparseable version %q: %v", raw, err)
		return current, ActionContinue
	}
	if !version.LessThan(current, latest) {
		logging.Debug("Bootstrap", "Installed %s is current", current)
		return current, ActionContinue
	}

	if ShouldPromptForUpdate(o.cfg.UpdateBehavior, current, latest) {
		switch o.cfg.Installer.DecideUpdate(ctx, o.cfg.Package, current.String(), latest.String()) {
		case ActionRetry:
			logging.Info("Bootstrap", "Environment reselected at update prompt, retrying")
			return current, ActionRetry
		case ActionAbort:
			logging.Info("Bootstrap", "Update to %s not applied, keeping %s", latest, current)
			return current, ActionContinue
		}
	}

	if err := o.cfg.Installer.Update(ctx, env, o.cfg.Package); err != nil {
		logging.Error("Bootstrap", err, "Policy-driven update failed, keeping %s", current)
		return current, ActionContinue
	}

	installed, ok := o.probe(ctx, env)
	if !ok {
		logging.Warn("Bootstrap", "Backend missing after update, keeping %s", current)
		return current, ActionContinue
	}
	updated, err := version.Normalize(installed)
	if err != nil {
		logging.Warn("Bootstrap", "Unparseable version after update: %v", err)
		return current, ActionContinue
	}
	logging.Info("Bootstrap", "Updated backend from %s to %s", current, updated)
	return updated, ActionContinue
}

func (o *Orchestrator) probe(ctx context.Context, env environment.Command) (string, bool) {
	return probeRaw(ctx, o.cfg.Runner, env, o.cfg.Package)
}

// probeRaw queries the installed backend version via
// `<env> -m <package> --version`. A failed invocation means the package is
// not importable in this environment, i.e. not installed.
func probeRaw(ctx context.Context, runner execx.Runner, env environment.Command, pkg string) (string, bool) {
	argv := append(append([]string{}, env...), "-m", pkg, "--version")
	result, err := runner.Run(ctx, argv, nil)
	if err != nil {
		logging.Debug("Bootstrap", "Version probe failed: %v", err)
		return "", false
	}
	return parseProbeOutput(result.Stdout), true
}

// ErrNotInstalled is returned by ProbeVersion when the backend cannot be
// imported in the environment.
var ErrNotInstalled = errors.New("backend is not installed")

// ProbeVersion queries and normalizes the installed backend version.
func ProbeVersion(ctx context.Context, runner execx.Runner, env environment.Command, pkg string) (version.Version, error) {
	raw, ok := probeRaw(ctx, runner, env, pkg)
	if !ok {
		return version.Version{}, ErrNotInstalled
	}
	v, err := version.Normalize(raw)
	if err != nil {
		return version.Version{}, &ProbeError{Output: raw, Err: err}
	}
	return v, nil
}

// parseProbeOutput extracts the version token from probe stdout, which may
// be bare ("0.11.0"), v-prefixed ("v0.11.0") or embedded in a banner line.
func parseProbeOutput(stdout string) string {
	trimmed := strings.TrimSpace(stdout)
	if _, err := version.Normalize(trimmed); err == nil {
		return trimmed
	}
	for _, field := range strings.Fields(trimmed) {
		if _, err := version.Normalize(field); err == nil {
			return field
		}
	}
	// Hand the raw output to the caller; normalization will surface a
	// ParseError carrying it for diagnosis.
	return trimmed
}
