package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hooktrace/cli/internal/detect"
	"github.com/hooktrace/cli/internal/dispatch"
)

// pollOutcome is how one polling attempt ended.
type pollOutcome int

const (
	outcomeDispatched pollOutcome = iota
	outcomeCancelled
	outcomeWriteFailed
)

// intercept runs the detection and injection protocol on one unit:
// open both sessions, settle, poll until a dispatch is seen or ctx is
// cancelled, and retry polling after write failures.
func (c *Controller) intercept(ctx context.Context, unit string, settle time.Duration) error {
	logger := c.logger.With("unit", unit)

	interceptor, err := c.platform.OpenInterceptor(unit)
	if err != nil {
		return fmt.Errorf("open debug-hooks for %s: %w", unit, err)
	}
	driver, err := c.platform.OpenDriver(unit)
	if err != nil {
		openErr := fmt.Errorf("open shell for %s: %w", unit, err)
		return errors.Join(openErr, c.teardown(ctx, unit, interceptor, nil))
	}

	if c.opts.OnSettling != nil {
		c.opts.OnSettling(unit, settle)
	}
	logger.Debug("Settling", "delay", settle)
	if err := c.sleep(ctx, settle); err != nil {
		return c.cancelled(ctx, unit, interceptor, driver)
	}

	det := detect.New(c.opts.Pattern, c.opts.MaxBuffer)
	for attempt := 1; ; attempt++ {
		det.Reset()
		logger.Debug("Polling for dispatch", "attempt", attempt)

		outcome, hook, err := c.poll(ctx, unit, interceptor, driver, det)
		switch outcome {
		case outcomeDispatched:
			if err != nil {
				return errors.Join(err, c.teardown(ctx, unit, interceptor, driver))
			}
			return c.dispatched(ctx, unit, hook, interceptor, driver)
		case outcomeCancelled:
			return c.cancelled(ctx, unit, interceptor, driver)
		case outcomeWriteFailed:
			logger.Debug("Polling abandoned", "error", err, "scanned", det.Scanned())
			if c.opts.OnRetry != nil {
				c.opts.OnRetry(unit, err)
			}
			if err := c.sleep(ctx, c.opts.Timings.RetryInterval); err != nil {
				return c.cancelled(ctx, unit, interceptor, driver)
			}
		}
	}
}

// poll is one polling attempt. Cancellation is only checked at the top of an
// iteration, so an injection that has started always completes.
//
// An outcomeDispatched with a non-nil error means the hook was detected but
// the dispatch command could not be written.
func (c *Controller) poll(ctx context.Context, unit string, interceptor Interceptor, driver Driver, det *detect.Detector) (pollOutcome, string, error) {
	request := dispatch.EnvRequestCommand(unit)
	for {
		if ctx.Err() != nil {
			return outcomeCancelled, "", nil
		}

		if err := driver.Send(request); err != nil {
			return outcomeWriteFailed, "", err
		}

		if data := interceptor.Drain(); len(data) > 0 {
			if hook, ok := det.Feed(data); ok {
				script := dispatch.Synthesize(hook, c.opts.Harness)
				if err := driver.Send(dispatch.SendKeysCommand(unit, script)); err != nil {
					return outcomeDispatched, hook, fmt.Errorf("inject %s dispatch into %s: %w", hook, unit, err)
				}
				return outcomeDispatched, hook, nil
			}
		}

		// A cancelled sleep is picked up by the check at the top.
		_ = c.sleep(ctx, c.opts.Timings.PollInterval)
	}
}

// dispatched lets the injected command run to completion. The shell exits
// after the send-keys it was given; debug-hooks exits when the traced hook
// finishes. Cancellation while waiting only stops the local processes, since
// the hook is already running remotely.
func (c *Controller) dispatched(ctx context.Context, unit, hook string, interceptor Interceptor, driver Driver) error {
	logger := c.logger.With("unit", unit, "hook", hook)
	logger.Debug("Dispatched traced hook")
	if c.opts.OnDispatch != nil {
		c.opts.OnDispatch(unit, hook)
	}

	if err := driver.Close(); err != nil {
		logger.Debug("Closing shell stdin failed", "error", err)
	}
	if err := driver.Wait(ctx); err != nil && ctx.Err() != nil {
		logger.Debug("Stopped waiting for shell", "error", err)
		_ = driver.Kill()
	}
	if err := interceptor.Wait(ctx); err != nil && ctx.Err() != nil {
		logger.Debug("Stopped waiting for debug-hooks", "error", err)
		if err := interceptor.Kill(); err != nil {
			return &TeardownError{Unit: unit, Step: "kill debug-hooks", Err: err}
		}
	}
	return nil
}

// cancelled tears down a unit whose wait was cancelled before any injection.
func (c *Controller) cancelled(ctx context.Context, unit string, interceptor Interceptor, driver Driver) error {
	c.logger.Debug("Cancelling", "unit", unit)
	if c.opts.OnCancelled != nil {
		c.opts.OnCancelled(unit)
	}
	return c.teardown(ctx, unit, interceptor, driver)
}
