package cli_test

import (
	"strings"
	"testing"

	"webstack-optimizer/src/cli"
	"webstack-optimizer/src/version"
)

func TestRootHelp_ShowsUsage(t *testing.T) {
	out, _, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Usage:") || !strings.Contains(out, "webstack-optimizer") {
		t.Fatalf("help output missing expected content; got: %s", out)
	}
}

func TestRoot_NoFlagsPrintsHelp(t *testing.T) {
	dir := newProject(t)
	out, _, err := run(t, "", "--project-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"--backup", "--restore", "--optimize", "--test"} {
		if !strings.Contains(out, want) {
			t.Fatalf("help missing %s; got: %s", want, out)
		}
	}
}

func TestGlobalFlags_Present(t *testing.T) {
	cmd := cli.NewRootCmd(nil, nil)
	for _, name := range []string{"dry-run", "yes", "config", "project-dir", "log-level", "debug"} {
		if f := cmd.PersistentFlags().Lookup(name); f == nil {
			t.Fatalf("missing global flag --%s", name)
		}
	}
}

func TestVersionCommand_PrintsVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, version.Version) {
		t.Fatalf("expected version %q in output; got: %s", version.Version, out)
	}
}

func TestInvalidSettingsFail(t *testing.T) {
	dir := newProject(t)
	mustWrite(t, dir+"/webstack-optimizer.yaml", "no_such_key: 1\n")
	if _, _, err := run(t, "", "--project-dir", dir, "--backup"); err == nil {
		t.Fatalf("expected unknown settings key to fail")
	}
}

func TestInvalidLogLevelFails(t *testing.T) {
	dir := newProject(t)
	if _, _, err := run(t, "", "--project-dir", dir, "--log-level", "loud", "--backup"); err == nil {
		t.Fatalf("expected invalid log level to fail")
	}
}
