// Package juju wraps the juju command line client.
//
// It provides the topology queries hooktrace needs (applications and units
// from `juju status`), the remote commands used during teardown, and the
// command lines for the two remote sessions opened per unit.
package juju

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/hooktrace/cli/internal/config"
)

// Runner executes a command and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSRunner runs commands with os/exec. On a non-zero exit the returned
// *exec.ExitError carries the command's stderr.
type OSRunner struct{}

// Output implements Runner.
func (OSRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// Client issues juju commands for one model.
type Client struct {
	binary string
	model  string
	runner Runner
}

// NewClient creates a client that shells out to the configured juju binary.
func NewClient(cfg config.JujuConfig) *Client {
	return &Client{
		binary: cfg.Binary,
		model:  cfg.Model,
		runner: OSRunner{},
	}
}

// NewClientWithRunner creates a client with a custom runner, for tests.
func NewClientWithRunner(cfg config.JujuConfig, runner Runner) *Client {
	c := NewClient(cfg)
	c.runner = runner
	return c
}

// Binary returns the juju executable the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// Args builds the argument list for a juju subcommand, inserting the model
// flag right after the subcommand so it precedes any positional arguments.
func (c *Client) Args(subcommand string, rest ...string) []string {
	args := make([]string, 0, len(rest)+3)
	args = append(args, subcommand)
	if c.model != "" {
		args = append(args, "-m", c.model)
	}
	return append(args, rest...)
}

func (c *Client) run(ctx context.Context, op string, args []string) ([]byte, error) {
	log.Debug("Running juju", "args", strings.Join(args, " "))
	out, err := c.runner.Output(ctx, c.binary, args...)
	if err == nil {
		return out, nil
	}
	envErr := &EnvironmentError{Binary: c.binary, Op: op, Err: err}
	// A bare name missing from PATH yields exec.ErrNotFound; a configured
	// path that does not exist fails at start with fs.ErrNotExist.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		envErr.Err = ErrBinaryNotFound
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		envErr.Stderr = strings.TrimSpace(string(exitErr.Stderr))
	}
	return nil, envErr
}

// Probe checks that the juju binary can be invoked at all.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.run(ctx, "version", []string{"version"})
	return err
}

// Status fetches a fresh topology snapshot.
//
// Returns:
//   - *Topology: The parsed snapshot
//   - error: An *EnvironmentError when juju is missing, fails, or prints
//     something that is not a status document
func (c *Client) Status(ctx context.Context) (*Topology, error) {
	if err := c.Probe(ctx); err != nil {
		return nil, err
	}
	out, err := c.run(ctx, "status", c.Args("status", "--format=json"))
	if err != nil {
		return nil, err
	}
	topo, err := ParseStatus(out)
	if err != nil {
		return nil, &EnvironmentError{Binary: c.binary, Op: "status", Err: err}
	}
	return topo, nil
}

// ListApplications returns the application names of a fresh snapshot.
func (c *Client) ListApplications(ctx context.Context) ([]string, error) {
	topo, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return topo.ApplicationNames(), nil
}

// ListUnits returns the unit names of an application from a fresh snapshot.
// An unknown application, or one without units, yields an empty list.
func (c *Client) ListUnits(ctx context.Context, application string) ([]string, error) {
	topo, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return topo.Units(application), nil
}

// KillSession kills the tmux session debug-hooks opened on the unit. The
// session is named after the unit.
func (c *Client) KillSession(ctx context.Context, unit string) error {
	_, err := c.run(ctx, "ssh", c.Args("ssh", unit, "tmux", "kill-session", "-t", unit))
	return err
}

// Resolve marks the unit's held hook error as resolved so the unit moves on.
func (c *Client) Resolve(ctx context.Context, unit string) error {
	_, err := c.run(ctx, "resolve", c.Args("resolve", unit))
	return err
}

// DebugHooksArgs returns the arguments that open an interactive debug-hooks
// session on the unit.
func (c *Client) DebugHooksArgs(unit string) []string {
	return c.Args("debug-hooks", unit)
}

// ShellArgs returns the arguments that open a remote bash on the unit that
// reads commands from stdin.
func (c *Client) ShellArgs(unit string) []string {
	return c.Args("ssh", unit, "bash")
}
