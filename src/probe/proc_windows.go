//go:build windows

package probe

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

// Windows has no SIGTERM; both stop steps kill the process.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func kill(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

// Without process groups there is nothing left to reap once the child exits.
func killGroup(*exec.Cmd) error { return nil }
