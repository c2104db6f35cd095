package client

import (
	"fmt"

	"docbridge/internal/bootstrap"
)

// BootstrapError is surfaced when a start attempt could not produce a
// compatible backend. It carries the terminal bootstrap outcome so the
// consolidated error path can offer the diagnostics output.
type BootstrapError struct {
	Outcome bootstrap.Outcome
}

func (e *BootstrapError) Error() string {
	switch e.Outcome.Kind {
	case bootstrap.OutcomeDeclined:
		return "backend setup declined; the integration is disabled for this session"
	default:
		if e.Outcome.Err != nil {
			return fmt.Sprintf("backend bootstrap failed (%s): %v", e.Outcome.Reason, e.Outcome.Err)
		}
		return fmt.Sprintf("backend bootstrap failed (%s)", e.Outcome.Reason)
	}
}

func (e *BootstrapError) Unwrap() error { return e.Outcome.Err }

// ConnectionError indicates the backend connection failed to establish or
// crashed while running.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("backend connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
