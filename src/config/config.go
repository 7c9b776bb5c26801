package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in the project directory when
// --config is not given.
const FileName = "webstack-optimizer.yaml"

// DefaultRedisURL is used when REDIS_URL is unset.
const DefaultRedisURL = "redis://localhost:6379/0"

// Settings holds every path, URL, command line and timing value the
// backup, generator, probe and test runner operations need.
type Settings struct {
	// ProjectDir is the application checkout. Relative paths below resolve against it.
	ProjectDir   string   `yaml:"project_dir"`
	BackupDir    string   `yaml:"backup_dir"`
	WatchedFiles []string `yaml:"watched_files"`

	Templates TemplateSettings `yaml:"templates"`
	Redis     RedisSettings    `yaml:"redis"`
	Health    HealthSettings   `yaml:"health"`
	Launch    LaunchSettings   `yaml:"launch"`
	Tests     TestSettings     `yaml:"tests"`
}

// TemplateSettings names the generated files and the values rendered into them.
type TemplateSettings struct {
	RateLimiterPath    string `yaml:"rate_limiter_path"`
	ProcessManagerPath string `yaml:"process_manager_path"`
	Bind               string `yaml:"bind"`
	RedisFallback      string `yaml:"redis_fallback"`
}

// RedisSettings configures the dependency check. ${REDIS_URL} inside
// PingCommand expands to URL.
type RedisSettings struct {
	URL         string   `yaml:"url"`
	PingCommand []string `yaml:"ping_command"`
	Expect      string   `yaml:"expect"`
}

type HealthSettings struct {
	URL            string        `yaml:"url"`
	Expect         string        `yaml:"expect"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LaunchSettings struct {
	AppCommand            []string      `yaml:"app_command"`
	ProcessManagerCommand []string      `yaml:"process_manager_command"`
	StartupTimeout        time.Duration `yaml:"startup_timeout"`
	PollInterval          time.Duration `yaml:"poll_interval"`
	MaxPollInterval       time.Duration `yaml:"max_poll_interval"`
	StopTimeout           time.Duration `yaml:"stop_timeout"`
}

type TestSettings struct {
	Dir     string `yaml:"dir"`
	Python  string `yaml:"python"`
	Pattern string `yaml:"pattern"`
}

// Default returns the settings matching the stock Flask/Gunicorn layout.
func Default() *Settings {
	return &Settings{
		ProjectDir: ".",
		BackupDir:  "config_backups",
		WatchedFiles: []string{
			"requirements.txt",
			"app.py",
			".env",
			"gunicorn_config.py",
			"travel_agent/config/limiter_config.py",
		},
		Templates: TemplateSettings{
			RateLimiterPath:    "travel_agent/config/limiter_config.py",
			ProcessManagerPath: "gunicorn_config.py",
			Bind:               "0.0.0.0:5001",
			RedisFallback:      DefaultRedisURL,
		},
		Redis: RedisSettings{
			URL:         DefaultRedisURL,
			PingCommand: []string{"redis-cli", "-u", "${REDIS_URL}", "ping"},
			Expect:      "PONG",
		},
		Health: HealthSettings{
			URL:            "http://localhost:5001/health",
			Expect:         "healthy",
			RequestTimeout: 2 * time.Second,
		},
		Launch: LaunchSettings{
			AppCommand:            []string{"python3", "app.py"},
			ProcessManagerCommand: []string{"gunicorn", "-c", "gunicorn_config.py", "app:app"},
			StartupTimeout:        15 * time.Second,
			PollInterval:          250 * time.Millisecond,
			MaxPollInterval:       2 * time.Second,
			StopTimeout:           5 * time.Second,
		},
		Tests: TestSettings{
			Dir:     "tests",
			Python:  "python3",
			Pattern: "test_*.py",
		},
	}
}

// Load reads a YAML settings file on top of Default. Unknown keys are rejected.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return s, nil
}

// Exists checks if a config file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyEnv lets REDIS_URL override the store URL.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv("REDIS_URL"); v != "" {
		s.Redis.URL = v
	}
}

// Resolve returns p unchanged when absolute, otherwise joined to ProjectDir.
func (s *Settings) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.ProjectDir, p)
}

// PingArgs returns the dependency check command with ${REDIS_URL} expanded.
func (s *Settings) PingArgs() []string {
	out := make([]string, len(s.Redis.PingCommand))
	for i, a := range s.Redis.PingCommand {
		out[i] = os.Expand(a, func(key string) string {
			if key == "REDIS_URL" {
				return s.Redis.URL
			}
			return "${" + key + "}"
		})
	}
	return out
}

// Validate reports the first setting that would make an operation unusable.
func (s *Settings) Validate() error {
	switch {
	case s.ProjectDir == "":
		return errors.New("project_dir must not be empty")
	case s.BackupDir == "":
		return errors.New("backup_dir must not be empty")
	case s.Templates.RateLimiterPath == "" || s.Templates.ProcessManagerPath == "":
		return errors.New("templates: both target paths are required")
	case s.Health.URL == "":
		return errors.New("health.url must not be empty")
	case len(s.Launch.AppCommand) == 0:
		return errors.New("launch.app_command must not be empty")
	case len(s.Launch.ProcessManagerCommand) == 0:
		return errors.New("launch.process_manager_command must not be empty")
	case s.Launch.StartupTimeout <= 0 || s.Launch.PollInterval <= 0 || s.Launch.StopTimeout <= 0:
		return errors.New("launch: timeouts and poll interval must be > 0")
	case s.Tests.Python == "":
		return errors.New("tests.python must not be empty")
	}
	if s.Launch.MaxPollInterval < s.Launch.PollInterval {
		return fmt.Errorf("launch.max_poll_interval (%s) is below poll_interval (%s)", s.Launch.MaxPollInterval, s.Launch.PollInterval)
	}
	return nil
}
