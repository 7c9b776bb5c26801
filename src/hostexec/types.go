package hostexec

import (
	"context"
	"strings"
)

// Command is a single invocation of a host binary.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result carries the captured output of a finished command. ExitCode is -1
// when the process could not be started.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner is the narrow interface over host commands used by the tool.
// Keep it small so tests can swap in FakeRunner.
type Runner interface {
	LookPath(name string) (string, error)

	// Run executes cmd to completion. A non-zero exit is reported both in
	// Result.ExitCode and as a non-nil error.
	Run(ctx context.Context, cmd Command) (Result, error)
}
