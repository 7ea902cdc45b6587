//go:build !windows

package session

import (
	"os/exec"
	"syscall"
)

// setProcGroup configures the command to run in its own process group, so
// juju and the ssh client it spawns can be signalled together.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the entire process group.
func killProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
