// Package interrupt turns process signals into context cancellation.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Signals are the signals that cancel an operation.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// WithInterrupt returns a context that is cancelled on the first SIGINT or
// SIGTERM. onSignal, if non-nil, runs before the cancel so the caller can
// tell the user teardown has started.
//
// Signals stay caught until the returned CancelFunc is called, so a second
// Ctrl+C cannot kill the process while teardown is still running.
//
// Parameters:
//   - parent: Parent context
//   - onSignal: Optional callback invoked once when a signal arrives
//
// Returns:
//   - context.Context: The cancellable context
//   - context.CancelFunc: Releases the signal handler; always call it
func WithInterrupt(parent context.Context, onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, Signals...)

	go func() {
		select {
		case sig := <-sigChan:
			if onSignal != nil {
				onSignal(sig)
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
