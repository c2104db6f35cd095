package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"docbridge/pkg/logging"
)

// ProcessLauncher launches the backend as a child process. The
// initialization payload is written to the backend's stdin as a single JSON
// document; lifecycle notifications arrive as JSON lines on stdout.
type ProcessLauncher struct {
	// Dir is the working directory for the backend process.
	Dir string
}

// Launch implements Launcher.
func (l *ProcessLauncher) Launch(ctx context.Context, spec LaunchSpec) (Connection, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("empty launch command")
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = l.Dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open backend stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open backend stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch backend: %w", err)
	}

	conn := &processConnection{
		id:            uuid.NewString(),
		cmd:           cmd,
		notifications: make(chan Notification, 16),
		done:          make(chan error, 1),
	}

	if err := conn.sendInit(stdin, spec.Payload); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	go conn.readNotifications(stdout)
	go conn.wait()

	logging.Info("ProcessLauncher", "Launched backend connection %s: %v", conn.id, spec.Argv)
	return conn, nil
}

type processConnection struct {
	id  string
	cmd *exec.Cmd

	notifications chan Notification
	done          chan error

	closeOnce sync.Once
}

func (c *processConnection) ID() string { return c.id }

func (c *processConnection) Notifications() <-chan Notification { return c.notifications }

func (c *processConnection) Done() <-chan error { return c.done }

func (c *processConnection) Close() error {
	c.closeOnce.Do(func() {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
	})
	return nil
}

func (c *processConnection) sendInit(stdin io.WriteCloser, payload InitPayload) error {
	defer stdin.Close()
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode initialization payload: %w", err)
	}
	if _, err := stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to send initialization payload: %w", err)
	}
	return nil
}

// wireNotification is the JSON-line shape the backend emits on stdout.
type wireNotification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func (c *processConnection) readNotifications(stdout io.Reader) {
	defer close(c.notifications)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var wire wireNotification
		if err := json.Unmarshal(line, &wire); err != nil {
			// Backends may print non-protocol output; pass it to the log.
			logging.Debug("Connection", "[%s] backend: %s", c.id, string(line))
			continue
		}

		switch wire.Method {
		case NotifyBuildStart:
			c.notifications <- Notification{Method: NotifyBuildStart}
		case NotifyBuildComplete:
			var build BuildComplete
			if err := json.Unmarshal(wire.Params, &build); err != nil {
				logging.Warn("Connection", "[%s] malformed buildComplete params: %v", c.id, err)
				continue
			}
			c.notifications <- Notification{Method: NotifyBuildComplete, Build: &build}
		default:
			logging.Debug("Connection", "[%s] ignoring notification %s", c.id, wire.Method)
		}
	}
}

func (c *processConnection) wait() {
	err := c.cmd.Wait()
	if err != nil {
		logging.Warn("Connection", "[%s] backend exited: %v", c.id, err)
	}
	c.done <- err
	close(c.done)
}
