package hostexec

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// FakeResponse is what FakeRunner answers for a command.
type FakeResponse struct {
	Result Result
	Err    error
}

// FakeRunner is an in-memory implementation for unit tests. Responses are
// looked up by the full command line first, then by binary name.
type FakeRunner struct {
	mu        sync.Mutex
	Paths     map[string]string
	Responses map[string]FakeResponse
	Calls     []Command
}

func NewFake() *FakeRunner {
	return &FakeRunner{Paths: map[string]string{}, Responses: map[string]FakeResponse{}}
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func (f *FakeRunner) Run(ctx context.Context, c Command) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	if r, ok := f.Responses[c.String()]; ok {
		return r.Result, r.Err
	}
	if r, ok := f.Responses[c.Name]; ok {
		return r.Result, r.Err
	}
	return Result{ExitCode: -1}, &exec.Error{Name: c.Name, Err: exec.ErrNotFound}
}

// Respond registers a successful answer for key.
func (f *FakeRunner) Respond(key, stdout, stderr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[key] = FakeResponse{Result: Result{Stdout: stdout, Stderr: stderr}}
}

// Fail registers a non-zero exit for key.
func (f *FakeRunner) Fail(key string, code int, stdout, stderr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[key] = FakeResponse{
		Result: Result{Stdout: stdout, Stderr: stderr, ExitCode: code},
		Err:    fmt.Errorf("exit status %d", code),
	}
}

// CallCount returns how many commands were run.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
