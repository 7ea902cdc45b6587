// Package controller drives hook interception for one application.
//
// A Controller resolves the application's units, opens the remote sessions,
// and then either holds the units until cancelled (Pause) or polls the
// debug-hooks terminal for the next dispatch and injects a traced dispatch
// in its place (Trace, Debug). Everything it starts it also tears down.
package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hooktrace/cli/internal/config"
	"github.com/hooktrace/cli/internal/detect"
	"github.com/hooktrace/cli/internal/dispatch"
)

// Options configures a Controller. The On* callbacks are optional and are
// called from the goroutine running Run.
type Options struct {
	// Timings are the protocol delays.
	Timings config.Timings

	// Pattern selects the hook name pattern.
	Pattern detect.Pattern

	// MaxBuffer caps the detection buffer.
	MaxBuffer int

	// Harness is the tracing harness source.
	Harness string

	// OnPaused is called after each unit's debug-hooks session is opened in Pause mode.
	OnPaused func(unit string)

	// OnHolding is called once every unit is held in Pause mode.
	OnHolding func(units []string)

	// OnSettling is called before the settle delay of Trace and Debug.
	OnSettling func(unit string, delay time.Duration)

	// OnRetry is called when a polling attempt is abandoned after a write error.
	OnRetry func(unit string, err error)

	// OnDispatch is called once the traced dispatch has been typed into the session.
	OnDispatch func(unit, hook string)

	// OnCancelled is called when cancellation is observed, before teardown.
	OnCancelled func(unit string)

	// OnReleased is called after a unit's teardown completed.
	OnReleased func(unit string)
}

// Controller runs one operation against the platform.
type Controller struct {
	platform Platform
	opts     Options
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *log.Logger
}

// New creates a Controller.
func New(platform Platform, opts Options) *Controller {
	if opts.Harness == "" {
		opts.Harness = dispatch.DefaultHarness
	}
	return &Controller{
		platform: platform,
		opts:     opts,
		sleep:    sleepContext,
		logger:   log.With("run", uuid.NewString()[:8]),
	}
}

// sleepContext waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run performs mode on application. Cancelling ctx stops Pause and Trace in
// an orderly way; Run then returns nil once teardown has completed. Debug
// ignores cancellation.
//
// Returns:
//   - error: *ValidationError for bad targets, *juju.EnvironmentError when the
//     platform cannot be queried, *TeardownError when cleanup fails
func (c *Controller) Run(ctx context.Context, mode Mode, application string) error {
	logger := c.logger.With("mode", mode, "application", application)
	logger.Debug("Resolving units")

	units, err := c.resolve(ctx, application)
	if err != nil {
		return err
	}
	logger.Debug("Resolved units", "units", units)

	if !mode.SingleUnit() {
		return c.hold(ctx, units)
	}

	switch len(units) {
	case 0:
		return &ValidationError{Kind: NoUnitsFound, Application: application}
	case 1:
	default:
		return &ValidationError{Kind: AmbiguousUnit, Application: application, Units: units}
	}

	if !mode.Cancellable() {
		ctx = context.WithoutCancel(ctx)
	}
	return c.intercept(ctx, units[0], mode.Settle(c.opts.Timings))
}

// resolve validates the application against one snapshot and fetches its
// units from another.
func (c *Controller) resolve(ctx context.Context, application string) ([]string, error) {
	apps, err := c.platform.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(apps, application) {
		return nil, &ValidationError{Kind: UnknownApplication, Application: application}
	}
	return c.platform.ListUnits(ctx, application)
}

// hold opens a debug-hooks session on every unit, one pause stagger apart,
// and keeps them open until ctx is cancelled.
func (c *Controller) hold(ctx context.Context, units []string) error {
	held := make([]Interceptor, 0, len(units))
	for i, unit := range units {
		interceptor, err := c.platform.OpenInterceptor(unit)
		if err != nil {
			openErr := fmt.Errorf("open debug-hooks for %s: %w", unit, err)
			return errors.Join(openErr, c.release(ctx, units[:len(held)], held))
		}
		held = append(held, interceptor)
		c.logger.Debug("Paused unit", "unit", unit)
		if c.opts.OnPaused != nil {
			c.opts.OnPaused(unit)
		}
		if i < len(units)-1 {
			if err := c.sleep(ctx, c.opts.Timings.PauseStagger); err != nil {
				return c.release(ctx, units[:len(held)], held)
			}
		}
	}

	if c.opts.OnHolding != nil {
		c.opts.OnHolding(units)
	}
	<-ctx.Done()
	return c.release(ctx, units, held)
}

// release kills every held session, then clears each unit remotely in order.
func (c *Controller) release(ctx context.Context, units []string, held []Interceptor) error {
	for i, interceptor := range held {
		if err := interceptor.Kill(); err != nil {
			return &TeardownError{Unit: units[i], Step: "kill debug-hooks", Err: err}
		}
	}
	for _, unit := range units {
		if err := c.clearRemote(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}

// clearRemote kills the unit's tmux session and resolves its held hook. The
// kill-session completes before resolve is issued.
func (c *Controller) clearRemote(ctx context.Context, unit string) error {
	ctx = context.WithoutCancel(ctx)
	if err := c.platform.KillSession(ctx, unit); err != nil {
		return &TeardownError{Unit: unit, Step: "kill-session", Err: err}
	}
	if err := c.platform.Resolve(ctx, unit); err != nil {
		return &TeardownError{Unit: unit, Step: "resolve", Err: err}
	}
	c.logger.Debug("Released unit", "unit", unit)
	if c.opts.OnReleased != nil {
		c.opts.OnReleased(unit)
	}
	return nil
}

// teardown releases everything a trace session may have started. Either
// process may be nil if it was never started.
func (c *Controller) teardown(ctx context.Context, unit string, interceptor Interceptor, driver Driver) error {
	if driver != nil {
		if err := driver.Send("exit\n"); err != nil {
			c.logger.Debug("Shell already gone", "unit", unit, "error", err)
		}
		if err := driver.Kill(); err != nil {
			return &TeardownError{Unit: unit, Step: "kill shell", Err: err}
		}
	}
	if interceptor != nil {
		if err := interceptor.Kill(); err != nil {
			return &TeardownError{Unit: unit, Step: "kill debug-hooks", Err: err}
		}
	}
	return c.clearRemote(ctx, unit)
}
