package generator

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

const (
	rateLimiterTemplate    = "limiter_config.py.tmpl"
	processManagerTemplate = "gunicorn_config.py.tmpl"
)

// Values are the only inputs rendered into the generated files.
type Values struct {
	// RedisFallback is used by the rate limiter when REDIS_URL is unset.
	RedisFallback string
	// Bind is the Gunicorn listen address.
	Bind string
}

// DefaultValues reproduce the stock configuration.
func DefaultValues() Values {
	return Values{RedisFallback: "redis://localhost:6379/0", Bind: "0.0.0.0:5001"}
}

// Generator overwrites the rate-limiter and process-manager settings files.
// It never merges with or backs up existing content.
type Generator struct {
	RateLimiterPath    string
	ProcessManagerPath string
	Values             Values
}

func New(rateLimiterPath, processManagerPath string, v Values) *Generator {
	return &Generator{RateLimiterPath: rateLimiterPath, ProcessManagerPath: processManagerPath, Values: v}
}

func (g *Generator) RenderRateLimiter() ([]byte, error) {
	return g.render(rateLimiterTemplate)
}

func (g *Generator) RenderProcessManager() ([]byte, error) {
	return g.render(processManagerTemplate)
}

// WriteRateLimiterConfig overwrites the rate-limiter settings file and
// returns its path.
func (g *Generator) WriteRateLimiterConfig() (string, error) {
	return g.write(g.RateLimiterPath, g.RenderRateLimiter)
}

// WriteProcessManagerConfig overwrites the Gunicorn settings file and
// returns its path.
func (g *Generator) WriteProcessManagerConfig() (string, error) {
	return g.write(g.ProcessManagerPath, g.RenderProcessManager)
}

// WriteAll writes the rate limiter first, then the process manager.
func (g *Generator) WriteAll() ([]string, error) {
	var written []string
	for _, w := range []func() (string, error){g.WriteRateLimiterConfig, g.WriteProcessManagerConfig} {
		p, err := w()
		if err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

func (g *Generator) render(name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, g.Values); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) write(path string, render func() ([]byte, error)) (string, error) {
	if path == "" {
		return "", errors.New("generator: target path must not be empty")
	}
	content, err := render()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Action is what writing a target would do to the file on disk.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
)

// Change describes one target of a Plan.
type Change struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Action Action `json:"action"`
}

// Plan reports what WriteAll would do without touching the filesystem.
func (g *Generator) Plan() ([]Change, error) {
	targets := []struct {
		name   string
		path   string
		render func() ([]byte, error)
	}{
		{"rate-limiter", g.RateLimiterPath, g.RenderRateLimiter},
		{"process-manager", g.ProcessManagerPath, g.RenderProcessManager},
	}
	plan := make([]Change, 0, len(targets))
	for _, t := range targets {
		want, err := t.render()
		if err != nil {
			return nil, err
		}
		have, err := os.ReadFile(t.path)
		var action Action
		switch {
		case errors.Is(err, fs.ErrNotExist):
			action = ActionCreate
		case err != nil:
			return nil, err
		case bytes.Equal(have, want):
			action = ActionUnchanged
		default:
			action = ActionUpdate
		}
		plan = append(plan, Change{Name: t.name, Path: t.path, Action: action})
	}
	return plan, nil
}
