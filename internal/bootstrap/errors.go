package bootstrap

import (
	"errors"
	"fmt"
)

// Fatal bootstrap failure reasons. These are the terminal Failed(reason)
// values and also drive the consolidated error surfaced to the user.
const (
	ReasonNoEnvironment = "no-environment"
	ReasonNotInstalled  = "not-installed"
	ReasonVersionParse  = "version-parse"
	ReasonInstallFailed = "install-failed"
	ReasonUpdateFailed  = "update-failed"
	ReasonIncompatible  = "incompatible"
)

// ErrRegistryUnavailable marks a failed registry query. Soft update checks
// swallow it; only the hard minimum-version path ever surfaces it.
var ErrRegistryUnavailable = errors.New("package registry unavailable")

// ProbeError indicates the installed-version probe produced output that
// could not be parsed. The raw output is retained for diagnosis.
type ProbeError struct {
	Output string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("could not determine installed version: %v", e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// InstallError indicates the install or update subprocess exited abnormally.
// It is never retried automatically.
type InstallError struct {
	Operation string // "install" or "update"
	Output    string
	Err       error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// IncompatibleVersionError indicates the installed backend is below the hard
// minimum required by this client.
type IncompatibleVersionError struct {
	Installed string
	Minimum   string
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("installed version %s is below the required minimum %s", e.Installed, e.Minimum)
}
