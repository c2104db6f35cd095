package client

import (
	"context"
)

// Notification method names emitted by the backend over the connection.
const (
	NotifyBuildStart    = "buildStart"
	NotifyBuildComplete = "buildComplete"
)

// BuildComplete is the payload of a buildComplete notification.
type BuildComplete struct {
	Config   BackendConfig `json:"config"`
	Error    bool          `json:"error"`
	Warnings int           `json:"warnings"`
}

// Notification is a lifecycle message from the running backend.
type Notification struct {
	Method string
	Build  *BuildComplete // set for buildComplete
}

// LaunchSpec describes one backend connection to establish.
type LaunchSpec struct {
	Argv    []string
	Payload InitPayload
}

// Connection is one established backend connection.
type Connection interface {
	// ID identifies the connection for logging and event payloads.
	ID() string

	// Notifications streams backend lifecycle notifications. The channel
	// closes when the connection ends.
	Notifications() <-chan Notification

	// Done resolves when the connection terminates, with the terminal
	// error if it crashed.
	Done() <-chan error

	// Close terminates the connection. Idempotent.
	Close() error
}

// Launcher establishes backend connections. The process-backed
// implementation lives in process.go; tests substitute fakes.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (Connection, error)
}
