package translate

import (
	"context"
	"encoding/json"
	"fmt"

	"docbridge/internal/client"
	"docbridge/internal/environment"
	"docbridge/internal/execx"
	"docbridge/pkg/logging"
)

// Error indicates a CLI↔config round trip the backend rejected. The raw
// subprocess output is kept for the diagnostics affordance; the original
// configuration is left untouched by a failed translation.
type Error struct {
	Direction string // "cliToConfig" or "configToCli"
	Output    string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("build command translation (%s) failed: %v", e.Direction, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Translator converts between the backend's native CLI argument list and
// the structured configuration object. Both directions are delegated to the
// backend itself, invoked one-shot, so the two representations can never
// drift from the backend's actual argument grammar.
type Translator struct {
	Runner  execx.Runner
	Package string
}

// CLIToConfig asks the backend to parse args into its configuration object.
func (t *Translator) CLIToConfig(ctx context.Context, env environment.Command, args []string) (client.BackendConfig, error) {
	argv := append(append([]string{}, env...), "-m", t.Package, "config", "--to-json")
	argv = append(argv, args...)

	result, err := t.Runner.Run(ctx, argv, nil)
	if err != nil {
		return client.BackendConfig{}, &Error{Direction: "cliToConfig", Output: result.Output(), Err: err}
	}

	var cfg client.BackendConfig
	if err := json.Unmarshal([]byte(result.Stdout), &cfg); err != nil {
		return client.BackendConfig{}, &Error{
			Direction: "cliToConfig",
			Output:    result.Output(),
			Err:       fmt.Errorf("backend produced unreadable configuration: %w", err),
		}
	}

	logging.Debug("Translator", "Parsed %d arguments into configuration", len(args))
	return cfg, nil
}

// ConfigToCLI asks the backend to render its configuration object back into
// an argument list.
func (t *Translator) ConfigToCLI(ctx context.Context, env environment.Command, cfg client.BackendConfig) ([]string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, &Error{Direction: "configToCli", Err: err}
	}

	argv := append(append([]string{}, env...), "-m", t.Package, "config", "--from-json")

	result, runErr := t.Runner.Run(ctx, argv, payload)
	if runErr != nil {
		return nil, &Error{Direction: "configToCli", Output: result.Output(), Err: runErr}
	}

	var args []string
	if err := json.Unmarshal([]byte(result.Stdout), &args); err != nil {
		return nil, &Error{
			Direction: "configToCli",
			Output:    result.Output(),
			Err:       fmt.Errorf("backend produced unreadable argument list: %w", err),
		}
	}

	logging.Debug("Translator", "Rendered configuration into %d arguments", len(args))
	return args, nil
}
