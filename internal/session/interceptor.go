// Package session manages the two local processes hooktrace keeps per unit:
// the interactive debug-hooks session bound to a pseudo-terminal, and the
// remote bash used to drive that session's tmux by name.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
)

// killGrace bounds how long Kill waits for a killed process to be reaped.
const killGrace = 5 * time.Second

// Interceptor is a debug-hooks process attached to a pseudo-terminal. Output
// is read continuously by a goroutine so the remote side never blocks on a
// full terminal, and is handed to the caller through Drain.
type Interceptor struct {
	unit string
	cmd  *exec.Cmd
	pty  *os.File
	out  *outputBuffer

	done     chan struct{}
	readDone chan struct{}
	waitErr  error

	closeOnce sync.Once
	closeErr  error

	killOnce sync.Once
	killErr  error
}

// Geometry is a terminal size in character cells.
type Geometry struct {
	Rows int
	Cols int
}

// StartInterceptor runs name with args on a fresh pseudo-terminal of the
// given size.
//
// Parameters:
//   - unit: Unit the session belongs to, used for logging
//   - name: Executable, normally juju
//   - args: Arguments, normally `debug-hooks <unit>`
//   - size: Terminal geometry
//
// Returns:
//   - *Interceptor: The running session
//   - error: If the pty cannot be allocated or the process cannot start
func StartInterceptor(unit, name string, args []string, size Geometry) (*Interceptor, error) {
	cmd := exec.Command(name, args...)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("pty start %s: %w", name, err)
	}

	i := &Interceptor{
		unit: unit,
		cmd:  cmd,
		pty:  ptmx,
		out:      newOutputBuffer(DefaultOutputLimit),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	log.Debug("Started debug-hooks", "unit", unit, "pid", cmd.Process.Pid)

	go i.read()
	go func() {
		i.waitErr = cmd.Wait()
		close(i.done)
		log.Debug("debug-hooks exited", "unit", unit, "error", i.waitErr)
	}()
	return i, nil
}

// read copies terminal output into the buffer until the terminal fails,
// which happens once debug-hooks has exited or Kill closed the master. The
// master is released here as well, so a session that ends on its own does
// not keep its descriptor open.
func (i *Interceptor) read() {
	defer close(i.readDone)
	buf := make([]byte, 32*1024)
	for {
		n, err := i.pty.Read(buf)
		if n > 0 {
			_, _ = i.out.Write(buf[:n])
		}
		if err != nil {
			i.out.Flush()
			if dropped := i.out.Dropped(); dropped > 0 {
				log.Debug("Undrained debug-hooks output discarded", "unit", i.unit, "bytes", dropped)
			}
			_ = i.closePty()
			return
		}
	}
}

// closePty closes the pty master once.
func (i *Interceptor) closePty() error {
	i.closeOnce.Do(func() {
		i.closeErr = i.pty.Close()
		if errors.Is(i.closeErr, os.ErrClosed) {
			i.closeErr = nil
		}
	})
	return i.closeErr
}

// Drain returns the terminal output received since the last call without
// blocking. A nil result means nothing new arrived.
func (i *Interceptor) Drain() []byte {
	return i.out.Drain()
}

// Done is closed when the process has exited.
func (i *Interceptor) Done() <-chan struct{} {
	return i.done
}

// Wait blocks until the process exits or ctx is done.
func (i *Interceptor) Wait(ctx context.Context) error {
	select {
	case <-i.done:
		return i.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill terminates the process group and releases the terminal. It is safe to
// call more than once and after the process has already exited.
func (i *Interceptor) Kill() error {
	i.killOnce.Do(func() {
		i.killErr = killAndReap(i.cmd, i.done)
		if err := i.closePty(); err != nil && i.killErr == nil {
			i.killErr = err
		}
	})
	return i.killErr
}

// killAndReap kills cmd's process group unless it already exited, then waits
// for the reaper goroutine to observe the exit.
func killAndReap(cmd *exec.Cmd, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	default:
	}
	killErr := killProcessGroup(cmd.Process.Pid)
	if killErr != nil {
		// The leader may have gone already; fall back to the single process.
		killErr = cmd.Process.Kill()
	}
	select {
	case <-done:
		return nil
	case <-time.After(killGrace):
		if killErr != nil {
			return fmt.Errorf("kill pid %d: %w", cmd.Process.Pid, killErr)
		}
		return fmt.Errorf("pid %d still running %s after kill", cmd.Process.Pid, killGrace)
	}
}
