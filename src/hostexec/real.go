package hostexec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// RealRunner runs commands with os/exec.
type RealRunner struct{}

func NewReal() *RealRunner {
	return &RealRunner{}
}

func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r *RealRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	err := cmd.Run()

	res := Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), ExitCode: -1}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	}
	return res, err
}
