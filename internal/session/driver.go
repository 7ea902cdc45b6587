package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"
)

// Driver is a remote shell whose stdin hooktrace writes tmux commands to.
// Its output is discarded.
type Driver struct {
	unit  string
	cmd   *exec.Cmd
	stdin io.WriteCloser

	writeMu sync.Mutex

	done    chan struct{}
	waitErr error

	closeOnce sync.Once
	killOnce  sync.Once
	killErr   error
}

// StartDriver runs name with args with a piped stdin and discarded output.
//
// Parameters:
//   - unit: Unit the shell belongs to, used for logging
//   - name: Executable, normally juju
//   - args: Arguments, normally `ssh <unit> bash`
//
// Returns:
//   - *Driver: The running shell
//   - error: If the process cannot be started
func StartDriver(unit, name string, args []string) (*Driver, error) {
	cmd := exec.Command(name, args...)
	setProcGroup(cmd)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	d := &Driver{
		unit:  unit,
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}
	log.Debug("Started driver shell", "unit", unit, "pid", cmd.Process.Pid)

	go func() {
		d.waitErr = cmd.Wait()
		close(d.done)
		log.Debug("Driver shell exited", "unit", unit, "error", d.waitErr)
	}()
	return d, nil
}

// Send writes one command line to the shell. Writes are serialized so a
// command is never interleaved with another.
func (d *Driver) Send(line string) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if _, err := io.WriteString(d.stdin, line); err != nil {
		return fmt.Errorf("write to %s shell: %w", d.unit, err)
	}
	return nil
}

// Close closes stdin so the shell exits once it has run what it was sent.
func (d *Driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.writeMu.Lock()
		defer d.writeMu.Unlock()
		err = d.stdin.Close()
		if errors.Is(err, os.ErrClosed) {
			err = nil
		}
	})
	return err
}

// Wait blocks until the shell exits or ctx is done.
func (d *Driver) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill terminates the shell's process group. It is safe to call more than
// once and after the shell has exited.
func (d *Driver) Kill() error {
	d.killOnce.Do(func() {
		d.killErr = killAndReap(d.cmd, d.done)
	})
	return d.killErr
}
