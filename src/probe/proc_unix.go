//go:build !windows

package probe

import (
	"errors"
	"os/exec"
	"syscall"
)

// The child gets its own process group so wrappers like gunicorn take their
// workers down with them.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}

func kill(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

// killGroup is kill for a group whose leader may already be gone. An empty
// group is not an error.
func killGroup(cmd *exec.Cmd) error {
	if err := kill(cmd); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
