package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"webstack-optimizer/src/hostexec"
)

var (
	// ErrDependencyUnavailable means the backing store did not answer the ping.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrExited means the child exited before it became ready.
	ErrExited = errors.New("application exited during startup")
	// ErrUnhealthy is only returned for launches with StrictHealth set.
	ErrUnhealthy = errors.New("health check did not report healthy")
	// ErrStopTimeout means the child ignored SIGTERM and had to be killed.
	ErrStopTimeout = errors.New("application did not stop in time")
)

const maxBody = 64 << 10

// Options tune the dependency check, the readiness poll and teardown.
type Options struct {
	HealthURL string
	// Expect must appear in the health response body.
	Expect string

	StartupTimeout  time.Duration
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	Multiplier      float64
	// Jitter in [0,1) randomizes each poll interval by up to that fraction.
	Jitter         float64
	RequestTimeout time.Duration
	StopTimeout    time.Duration

	Ping       []string
	PingExpect string
}

func DefaultOptions() Options {
	return Options{
		HealthURL:       "http://localhost:5001/health",
		Expect:          "healthy",
		StartupTimeout:  15 * time.Second,
		PollInterval:    250 * time.Millisecond,
		MaxPollInterval: 2 * time.Second,
		Multiplier:      2,
		Jitter:          0.1,
		RequestTimeout:  2 * time.Second,
		StopTimeout:     5 * time.Second,
		Ping:            []string{"redis-cli", "ping"},
		PingExpect:      "PONG",
	}
}

// Launch is one way of starting the application.
type Launch struct {
	Name    string
	Command []string
	Dir     string
	Env     []string
	// StrictHealth turns a health mismatch into ErrUnhealthy.
	StrictHealth bool
}

// Result is everything observed while probing one launch.
type Result struct {
	Name string `json:"name"`
	// Started is false when the child could not start or exited before it
	// became ready.
	Started    bool          `json:"started"`
	Ready      bool          `json:"ready"`
	Healthy    bool          `json:"healthy"`
	StatusCode int           `json:"status_code,omitempty"`
	Body       string        `json:"body,omitempty"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Attempts   int           `json:"attempts"`
	Elapsed    time.Duration `json:"elapsed"`
}

type Prober struct {
	opts   Options
	runner hostexec.Runner
	client *http.Client
	log    *zap.Logger
}

func New(opts Options, runner hostexec.Runner, log *zap.Logger) *Prober {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 1
	}
	if opts.MaxPollInterval < opts.PollInterval {
		opts.MaxPollInterval = opts.PollInterval
	}
	return &Prober{
		opts:   opts,
		runner: runner,
		client: &http.Client{Transport: &http.Transport{DisableKeepAlives: true}},
		log:    log,
	}
}

// CheckDependency runs the ping command and requires PingExpect in its
// output. Any failure wraps ErrDependencyUnavailable.
func (p *Prober) CheckDependency(ctx context.Context) error {
	if len(p.opts.Ping) == 0 {
		return fmt.Errorf("%w: no ping command configured", ErrDependencyUnavailable)
	}
	cmd := hostexec.Command{Name: p.opts.Ping[0], Args: p.opts.Ping[1:]}
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: %s: %s", ErrDependencyUnavailable, p.opts.Ping[0], detail)
	}
	if !strings.Contains(res.Stdout, p.opts.PingExpect) {
		return fmt.Errorf("%w: %s answered %q", ErrDependencyUnavailable, p.opts.Ping[0], strings.TrimSpace(res.Stdout))
	}
	p.log.Debug("dependency reachable", zap.String("command", cmd.String()))
	return nil
}

// Probe starts the launch command, polls the health URL with backoff until it
// answers or StartupTimeout passes, then stops the child.
//
// A child that exits before answering fails with ErrExited and its stderr in
// the result. A body without Expect is reported through Result.Healthy and is
// only an error when StrictHealth is set.
func (p *Prober) Probe(ctx context.Context, l Launch) (res Result, err error) {
	res = Result{Name: l.Name, ExitCode: -1}
	if len(l.Command) == 0 {
		return res, fmt.Errorf("%s: empty launch command", l.Name)
	}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(l.Command[0], l.Command[1:]...)
	cmd.Dir = l.Dir
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return res, fmt.Errorf("%s: start %s: %w", l.Name, l.Command[0], err)
	}
	p.log.Info("application started", zap.String("launch", l.Name), zap.Int("pid", cmd.Process.Pid), zap.Strings("command", l.Command))
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	exited, waitErr := p.awaitReady(ctx, done, &res)
	if exited {
		p.reapGroup(cmd)
		res.Stdout, res.Stderr = stdout.String(), stderr.String()
		res.ExitCode = exitCode(cmd, waitErr)
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", res.ExitCode)
		}
		return res, fmt.Errorf("%s: %w: %s", l.Name, ErrExited, msg)
	}
	res.Started = true

	var errs []error
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	} else {
		p.judgeHealth(l, &res)
		if !res.Healthy && l.StrictHealth {
			errs = append(errs, fmt.Errorf("%s: %w (body %q)", l.Name, ErrUnhealthy, res.Body))
		}
	}

	waitErr, stopErr := p.stop(cmd, done)
	p.reapGroup(cmd)
	res.Stdout, res.Stderr = stdout.String(), stderr.String()
	res.ExitCode = exitCode(cmd, waitErr)
	if stopErr != nil {
		errs = append(errs, fmt.Errorf("%s: %w", l.Name, stopErr))
	}
	return res, errors.Join(errs...)
}

// awaitReady polls until the health endpoint answers, the child exits, the
// startup deadline passes or ctx is cancelled. exited reports that the child
// is gone, with its Wait error.
func (p *Prober) awaitReady(ctx context.Context, done <-chan error, res *Result) (exited bool, waitErr error) {
	startupCtx, cancel := context.WithTimeout(ctx, p.opts.StartupTimeout)
	defer cancel()
	interval := p.opts.PollInterval
	for {
		timer := time.NewTimer(applyJitter(interval, p.opts.Jitter))
		select {
		case err := <-done:
			timer.Stop()
			return true, err
		case <-startupCtx.Done():
			timer.Stop()
			p.log.Warn("application not ready before startup timeout", zap.Int("attempts", res.Attempts), zap.Duration("timeout", p.opts.StartupTimeout))
			return false, nil
		case <-timer.C:
		}

		res.Attempts++
		status, body, err := p.fetch(startupCtx)
		if err == nil {
			res.Ready = true
			res.StatusCode = status
			res.Body = body
			p.log.Debug("health endpoint answered", zap.Int("attempt", res.Attempts), zap.Int("status", status))
			return false, nil
		}
		p.log.Debug("health endpoint not ready", zap.Int("attempt", res.Attempts), zap.Error(err))
		interval = calculateNextInterval(interval, p.opts.MaxPollInterval, p.opts.Multiplier)
	}
}

func (p *Prober) judgeHealth(l Launch, res *Result) {
	if !res.Ready {
		res.Healthy = false
		p.log.Warn("health check failed", zap.String("launch", l.Name), zap.String("url", p.opts.HealthURL))
		return
	}
	res.Healthy = strings.Contains(res.Body, p.opts.Expect)
	if !res.Healthy {
		p.log.Warn("unexpected health response", zap.String("launch", l.Name), zap.Int("status", res.StatusCode), zap.String("body", res.Body))
	}
}

func (p *Prober) fetch(ctx context.Context) (int, string, error) {
	if p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.HealthURL, nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, strings.TrimSpace(string(b)), nil
}

// stop sends SIGTERM to the child's process group and waits StopTimeout for
// it to exit before killing it.
func (p *Prober) stop(cmd *exec.Cmd, done <-chan error) (waitErr, stopErr error) {
	if err := terminate(cmd); err != nil {
		p.log.Debug("terminate", zap.Error(err))
	}
	timer := time.NewTimer(p.opts.StopTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err, nil
	case <-timer.C:
	}
	p.log.Warn("application ignored SIGTERM, killing", zap.Int("pid", cmd.Process.Pid), zap.Duration("stop_timeout", p.opts.StopTimeout))
	if err := kill(cmd); err != nil {
		p.log.Debug("kill", zap.Error(err))
	}
	return <-done, ErrStopTimeout
}

// reapGroup kills whatever the child left behind in its process group, such
// as a reloader or a backgrounded server.
func (p *Prober) reapGroup(cmd *exec.Cmd) {
	if err := killGroup(cmd); err != nil {
		p.log.Debug("kill process group", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// applyJitter scales interval by a random factor in [1-jitter, 1+jitter].
func applyJitter(interval time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return interval
	}
	factor := 1.0 + (rand.Float64()*2-1)*jitter
	return time.Duration(float64(interval) * factor)
}

func calculateNextInterval(current, max time.Duration, multiplier float64) time.Duration {
	next := time.Duration(float64(current) * multiplier)
	if next > max {
		return max
	}
	return next
}
