package environment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docbridge/pkg/logging"
)

// ErrNotFound indicates that no runtime environment could be resolved.
// The absence must be surfaced to the user, never papered over with a
// guessed system default.
var ErrNotFound = errors.New("no runtime environment found")

// workspaceRootPlaceholder may appear once, leading, in a configured path.
const workspaceRootPlaceholder = "${workspaceRoot}"

// Command is the argv prefix used to invoke the selected runtime, e.g.
// ["/usr/bin/python3"] or ["conda", "run", "-n", "docs", "python"].
// It is immutable once resolved for a given bootstrap attempt.
type Command []string

// Provider is an optional delegated lookup through an external
// interpreter-management integration. Implementations return the argv
// prefix for the active interpreter in the given scope.
type Provider interface {
	Interpreter(ctx context.Context, scopeHint string) (Command, error)
}

// Resolver determines the command used to invoke the user's chosen runtime.
// Every Resolve call re-resolves from scratch; the active environment may
// change between calls.
type Resolver struct {
	// ConfiguredCommand is the explicit user-configured invocation, if any.
	// The first element may start with ${workspaceRoot}.
	ConfiguredCommand []string

	// WorkspaceRoot is the absolute path of the first workspace folder,
	// used to expand the placeholder.
	WorkspaceRoot string

	// Provider is the delegated lookup. May be nil.
	Provider Provider
}

// Resolve returns the environment command for the given scope, trying the
// explicit configuration first, then the delegated provider, and failing
// with ErrNotFound otherwise.
func (r *Resolver) Resolve(ctx context.Context, scopeHint string) (Command, error) {
	if len(r.ConfiguredCommand) > 0 {
		cmd, err := r.expandConfigured()
		if err != nil {
			return nil, err
		}
		logging.Debug("EnvironmentResolver", "Using configured environment: %v", cmd)
		return cmd, nil
	}

	if r.Provider != nil {
		cmd, err := r.Provider.Interpreter(ctx, scopeHint)
		if err != nil {
			logging.Warn("EnvironmentResolver", "Delegated interpreter lookup failed: %v", err)
		} else if len(cmd) > 0 {
			logging.Debug("EnvironmentResolver", "Using delegated environment: %v", cmd)
			return cmd.clone(), nil
		}
	}

	return nil, ErrNotFound
}

func (r *Resolver) expandConfigured() (Command, error) {
	out := make(Command, len(r.ConfiguredCommand))
	copy(out, r.ConfiguredCommand)

	if strings.HasPrefix(out[0], workspaceRootPlaceholder) {
		if r.WorkspaceRoot == "" {
			return nil, fmt.Errorf("configured path uses %s but no workspace folder is open", workspaceRootPlaceholder)
		}
		rest := strings.TrimPrefix(out[0], workspaceRootPlaceholder)
		rest = strings.TrimPrefix(rest, "/")
		out[0] = filepath.Join(r.WorkspaceRoot, rest)
	}
	return out, nil
}

func (c Command) clone() Command {
	out := make(Command, len(c))
	copy(out, c)
	return out
}
