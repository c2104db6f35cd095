package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"docbridge/pkg/logging"
)

// Result captures the outcome of a finished subprocess.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns the combined output for diagnostics, stdout first.
func (r Result) Output() string {
	var b strings.Builder
	if r.Stdout != "" {
		b.WriteString(r.Stdout)
	}
	if r.Stderr != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Stderr)
	}
	return b.String()
}

// Runner executes one-shot subprocesses. The interface exists so the
// bootstrap and translation paths can be exercised with fakes.
type Runner interface {
	// Run executes argv with optional stdin and waits for completion.
	// A non-zero exit is returned as an error alongside the captured output.
	Run(ctx context.Context, argv []string, stdin []byte) (Result, error)
}

// OSRunner runs subprocesses with os/exec.
type OSRunner struct {
	// Dir is the working directory for spawned processes. Empty means
	// the current directory.
	Dir string
}

// Run implements Runner.
func (r *OSRunner) Run(ctx context.Context, argv []string, stdin []byte) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("Exec", "Running command: %s", strings.Join(argv, " "))
	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return result, fmt.Errorf("command %q failed: %w", argv[0], err)
	}
	return result, nil
}
