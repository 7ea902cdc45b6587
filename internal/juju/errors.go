package juju

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBinaryNotFound means the juju executable is not on PATH.
	ErrBinaryNotFound = errors.New("binary not found")

	// ErrMalformedStatus means `juju status` printed something that is not
	// the expected JSON document.
	ErrMalformedStatus = errors.New("malformed status output")
)

// EnvironmentError reports that the juju binary could not be used: it is
// missing, it failed, or its output could not be understood.
type EnvironmentError struct {
	// Binary is the executable that was invoked.
	Binary string

	// Op is the juju subcommand being run (e.g. "status").
	Op string

	// Stderr is the trimmed standard error of the failed invocation, if any.
	Stderr string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *EnvironmentError) Error() string {
	if errors.Is(e.Err, ErrBinaryNotFound) {
		if strings.ContainsAny(e.Binary, `/\`) {
			return fmt.Sprintf("`%s` was not found", e.Binary)
		}
		return fmt.Sprintf("`%s` was not found in your PATH", e.Binary)
	}
	msg := fmt.Sprintf("%s %s failed: %v", e.Binary, e.Op, e.Err)
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// Guidance returns instructions for fixing the environment.
func (e *EnvironmentError) Guidance() string {
	switch {
	case errors.Is(e.Err, ErrBinaryNotFound):
		return `Install the juju client and make sure it is on PATH:
  sudo snap install juju --classic

Or point hooktrace at it in config.yaml:
  juju:
    binary: /path/to/juju`
	case errors.Is(e.Err, ErrMalformedStatus):
		return `Check that the juju client can reach the controller:
  juju status --format=json`
	default:
		return `Check that a controller and model are selected:
  juju whoami
  juju models`
	}
}
