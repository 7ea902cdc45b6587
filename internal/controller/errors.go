package controller

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by ValidationError.Is.
var (
	ErrUnknownApplication = errors.New("unknown application")
	ErrNoUnitsFound       = errors.New("no units found")
	ErrAmbiguousUnit      = errors.New("ambiguous unit")
)

// ValidationKind classifies a ValidationError.
type ValidationKind int

const (
	// UnknownApplication means the application is not in the topology.
	UnknownApplication ValidationKind = iota
	// NoUnitsFound means a single-unit mode found no unit.
	NoUnitsFound
	// AmbiguousUnit means a single-unit mode found more than one unit.
	AmbiguousUnit
)

// ValidationError reports that the requested application cannot be operated
// on in the requested mode.
type ValidationError struct {
	Kind        ValidationKind
	Application string

	// Units holds the resolved units for AmbiguousUnit.
	Units []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case NoUnitsFound:
		return fmt.Sprintf("no units found for application: %s", e.Application)
	case AmbiguousUnit:
		return fmt.Sprintf("multiple units found for application: %s (%s)", e.Application, strings.Join(e.Units, ", "))
	default:
		return fmt.Sprintf("unknown application: %s", e.Application)
	}
}

// Is matches the sentinel for the error's kind.
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case NoUnitsFound:
		return target == ErrNoUnitsFound
	case AmbiguousUnit:
		return target == ErrAmbiguousUnit
	default:
		return target == ErrUnknownApplication
	}
}

// Guidance returns instructions for the operator.
func (e *ValidationError) Guidance() string {
	switch e.Kind {
	case NoUnitsFound:
		return "Wait for the application to be deployed, or add a unit:\n  juju add-unit " + e.Application
	case AmbiguousUnit:
		return "trace and debug follow a single unit. Scale the application down to one\nunit, or hold all of them with:\n  hooktrace juju pause " + e.Application
	default:
		return "List the applications of the current model with:\n  hooktrace juju apps"
	}
}

// TeardownError reports a failed cleanup step. Cleanup failures are never
// swallowed: the unit may still be held in debug-hooks.
type TeardownError struct {
	// Unit is the unit being released.
	Unit string

	// Step names the failed step ("kill debug-hooks", "kill shell",
	// "kill-session", "resolve").
	Step string

	Err error
}

// Error implements the error interface.
func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown of %s failed at %s: %v", e.Unit, e.Step, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TeardownError) Unwrap() error {
	return e.Err
}

// Guidance returns the manual recovery commands for the unit.
func (e *TeardownError) Guidance() string {
	return fmt.Sprintf("The unit may still be held. Release it manually:\n  juju ssh %s tmux kill-session -t %s\n  juju resolve %s", e.Unit, e.Unit, e.Unit)
}
