package cli

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"webstack-optimizer/src/probe"
)

// checkDependency prints the outcome of the Redis ping.
func (a *app) checkDependency(ctx context.Context, p *probe.Prober) bool {
	if err := p.CheckDependency(ctx); err != nil {
		a.log.Error("dependency check failed", zap.Error(err))
		a.ui.Fail("Redis is not running or redis-cli not found")
		return false
	}
	a.ui.Success("Redis is running")
	return true
}

// smokeTest probes one launch and prints the transcript. It reports whether
// the launch passed.
func (a *app) smokeTest(ctx context.Context, p *probe.Prober, l probe.Launch) bool {
	a.ui.Step("Starting %s for testing...", strings.ToLower(l.Name))
	res, err := p.Probe(ctx, l)
	a.log.Debug("probe finished", zap.String("launch", l.Name), zap.Int("attempts", res.Attempts),
		zap.Duration("elapsed", res.Elapsed), zap.Int("exit_code", res.ExitCode), zap.Error(err))

	if !res.Started {
		if errors.Is(err, probe.ErrExited) {
			a.ui.Fail("%s failed to start: %s", l.Name, strings.TrimSpace(res.Stderr))
		} else {
			a.ui.Fail("Error testing %s: %v", strings.ToLower(l.Name), err)
		}
		return false
	}
	a.ui.Success("%s started successfully", l.Name)

	switch {
	case !res.Ready:
		a.ui.Fail("%s health check failed: no response from %s", l.Name, a.settings.Health.URL)
	case res.Healthy:
		a.ui.Success("%s health check passed: %s", l.Name, res.Body)
	default:
		a.ui.Fail("%s health check failed: %s", l.Name, res.Body)
	}
	if errors.Is(err, probe.ErrStopTimeout) {
		a.ui.Warn("%s ignored SIGTERM for %s and was killed", l.Name, a.settings.Launch.StopTimeout)
	}
	if err != nil {
		a.log.Error("smoke test failed", zap.String("launch", l.Name), zap.Error(err))
		return false
	}
	if !res.Healthy {
		a.ui.Warn("Continuing: an unhealthy response is not fatal without --strict-health")
	}
	return true
}
