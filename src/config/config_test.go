package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webstack-optimizer/src/config"
)

func TestDefault_IsValid(t *testing.T) {
	s := config.Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, "config_backups", s.BackupDir)
	assert.Equal(t, "0.0.0.0:5001", s.Templates.Bind)
	assert.Equal(t, config.DefaultRedisURL, s.Redis.URL)
	assert.Contains(t, s.WatchedFiles, "app.py")
	assert.Contains(t, s.WatchedFiles, ".env")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	data := `
backup_dir: snapshots
watched_files: [app.py]
launch:
  app_command: ["python", "wsgi.py"]
  startup_timeout: 3s
health:
  url: http://127.0.0.1:8080/healthz
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "snapshots", s.BackupDir)
	assert.Equal(t, []string{"app.py"}, s.WatchedFiles)
	assert.Equal(t, []string{"python", "wsgi.py"}, s.Launch.AppCommand)
	assert.Equal(t, 3*time.Second, s.Launch.StartupTimeout)
	assert.Equal(t, "http://127.0.0.1:8080/healthz", s.Health.URL)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, s.Launch.StopTimeout)
	assert.Equal(t, "healthy", s.Health.Expect)
}

func TestLoad_EmptyFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), s)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("backup_dri: typo\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.False(t, config.Exists(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestApplyEnv_RedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6380/2")
	s := config.Default()
	s.ApplyEnv()
	assert.Equal(t, "redis://cache:6380/2", s.Redis.URL)
	assert.Equal(t, []string{"redis-cli", "-u", "redis://cache:6380/2", "ping"}, s.PingArgs())
	// the generated rate limiter keeps its own fallback
	assert.Equal(t, config.DefaultRedisURL, s.Templates.RedisFallback)
}

func TestApplyEnv_UnsetKeepsFallback(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	s := config.Default()
	s.ApplyEnv()
	assert.Equal(t, config.DefaultRedisURL, s.Redis.URL)
}

func TestPingArgs_LeavesOtherVariables(t *testing.T) {
	s := config.Default()
	s.Redis.PingCommand = []string{"sh", "-c", "echo ${HOME}"}
	assert.Equal(t, []string{"sh", "-c", "echo ${HOME}"}, s.PingArgs())
}

func TestResolve(t *testing.T) {
	s := config.Default()
	s.ProjectDir = "/srv/app"
	assert.Equal(t, filepath.Join("/srv/app", "app.py"), s.Resolve("app.py"))
	assert.Equal(t, "/etc/app.env", s.Resolve("/etc/app.env"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Settings)
	}{
		{"empty backup dir", func(s *config.Settings) { s.BackupDir = "" }},
		{"no app command", func(s *config.Settings) { s.Launch.AppCommand = nil }},
		{"no health url", func(s *config.Settings) { s.Health.URL = "" }},
		{"zero stop timeout", func(s *config.Settings) { s.Launch.StopTimeout = 0 }},
		{"max below initial interval", func(s *config.Settings) { s.Launch.MaxPollInterval = time.Millisecond }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := config.Default()
			tc.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}
