package controller

import (
	"fmt"
	"time"

	"github.com/hooktrace/cli/internal/config"
)

// Mode selects what the controller does with the resolved units. All modes
// share topology resolution and teardown; they differ only in how many units
// they accept and whether they poll for a dispatch.
type Mode int

const (
	// Pause holds every unit in debug-hooks until cancelled.
	Pause Mode = iota
	// Trace waits for the single unit's next hook and dispatches it traced.
	// Cancellation tears the session down.
	Trace
	// Debug is Trace without a cancellation path and with a longer settle.
	Debug
)

// ParseMode maps an operation name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "pause":
		return Pause, nil
	case "trace":
		return Trace, nil
	case "debug":
		return Debug, nil
	default:
		return 0, fmt.Errorf("unknown operation: %s", name)
	}
}

// String returns the operation name.
func (m Mode) String() string {
	switch m {
	case Pause:
		return "pause"
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SingleUnit reports whether the mode requires exactly one resolved unit.
func (m Mode) SingleUnit() bool {
	return m != Pause
}

// Cancellable reports whether cancellation is observed while polling.
func (m Mode) Cancellable() bool {
	return m != Debug
}

// Settle returns the delay between opening the sessions and the first poll.
func (m Mode) Settle(t config.Timings) time.Duration {
	if m == Debug {
		return t.DebugSettle
	}
	return t.TraceSettle
}
