package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webstack-optimizer/src/backup"
	"webstack-optimizer/src/config"
	"webstack-optimizer/src/generator"
	"webstack-optimizer/src/hostexec"
	"webstack-optimizer/src/logging"
	"webstack-optimizer/src/probe"
	"webstack-optimizer/src/testrunner"
	"webstack-optimizer/src/ui"
)

type hostRunnerFunc func() hostexec.Runner

var newHostRunner hostRunnerFunc = func() hostexec.Runner { return hostexec.NewReal() }

// SetHostRunnerForTest replaces the host command runner used by every command.
// The returned function restores the previous one.
func SetHostRunnerForTest(r hostexec.Runner) func() {
	prev := newHostRunner
	newHostRunner = func() hostexec.Runner { return r }
	return func() { newHostRunner = prev }
}

// app is the state shared by the commands of one invocation. It is filled in
// by the root PersistentPreRunE.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	settings *config.Settings
	log      *zap.Logger
	ui       *ui.Printer
	runner   hostexec.Runner
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	cfgPath, _ := flags.GetString("config")
	projectDir, _ := flags.GetString("project-dir")

	if cfgPath == "" {
		dir := projectDir
		if dir == "" {
			dir = "."
		}
		if candidate := filepath.Join(dir, config.FileName); config.Exists(candidate) {
			cfgPath = candidate
		}
	}
	s := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		s = loaded
		// project_dir in a settings file is relative to that file
		if !filepath.IsAbs(s.ProjectDir) {
			s.ProjectDir = filepath.Join(filepath.Dir(cfgPath), s.ProjectDir)
		}
	}
	if projectDir != "" {
		s.ProjectDir = projectDir
	}
	s.ApplyEnv()
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logOpts := getLogOptions(cmd)
	logOpts.Output = a.stderr
	log, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	a.settings = s
	a.log = log
	a.ui = ui.New(a.stdout)
	a.runner = newHostRunner()
	a.log.Debug("settings loaded", zap.String("config", cfgPath), zap.String("project_dir", s.ProjectDir))
	return nil
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) backups() *backup.Manager {
	s := a.settings
	return backup.New(s.Resolve(s.BackupDir), s.ProjectDir, s.WatchedFiles, backup.WithLogger(a.log.Named("backup")))
}

func (a *app) generator() *generator.Generator {
	s := a.settings
	return generator.New(
		s.Resolve(s.Templates.RateLimiterPath),
		s.Resolve(s.Templates.ProcessManagerPath),
		generator.Values{RedisFallback: s.Templates.RedisFallback, Bind: s.Templates.Bind},
	)
}

func (a *app) prober() *probe.Prober {
	s := a.settings
	opts := probe.DefaultOptions()
	opts.HealthURL = s.Health.URL
	opts.Expect = s.Health.Expect
	opts.RequestTimeout = s.Health.RequestTimeout
	opts.StartupTimeout = s.Launch.StartupTimeout
	opts.PollInterval = s.Launch.PollInterval
	opts.MaxPollInterval = s.Launch.MaxPollInterval
	opts.StopTimeout = s.Launch.StopTimeout
	opts.Ping = s.PingArgs()
	opts.PingExpect = s.Redis.Expect
	return probe.New(opts, a.runner, a.log.Named("probe"))
}

func (a *app) testRunner(verbosity int, pattern string) *testrunner.Runner {
	s := a.settings
	if pattern == "" {
		pattern = s.Tests.Pattern
	}
	return testrunner.New(testrunner.Options{
		ProjectDir: s.ProjectDir,
		TestsDir:   s.Resolve(s.Tests.Dir),
		Python:     s.Tests.Python,
		Pattern:    pattern,
		Verbosity:  verbosity,
	}, a.runner, a.log.Named("tests"))
}

// directLaunch runs the application entry point without a process manager.
func (a *app) directLaunch(strict bool) probe.Launch {
	return probe.Launch{
		Name:         "Application",
		Command:      a.settings.Launch.AppCommand,
		Dir:          a.settings.ProjectDir,
		Env:          []string{"REDIS_URL=" + a.settings.Redis.URL},
		StrictHealth: strict,
	}
}

func (a *app) processManagerLaunch(strict bool) probe.Launch {
	return probe.Launch{
		Name:         "Gunicorn",
		Command:      a.settings.Launch.ProcessManagerCommand,
		Dir:          a.settings.ProjectDir,
		Env:          []string{"REDIS_URL=" + a.settings.Redis.URL},
		StrictHealth: strict,
	}
}
