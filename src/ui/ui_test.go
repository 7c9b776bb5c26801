package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"webstack-optimizer/src/ui"
)

func TestPrinter_PlainOutputForBuffers(t *testing.T) {
	var buf bytes.Buffer
	p := ui.New(&buf)
	p.Success("Backup created at %s", "config_backups/t1")
	p.Fail("Application failed to start: %s", "boom")
	p.Banner("Deployment", 10)

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes for a non-terminal writer, got %q", out)
	}
	for _, want := range []string{
		"✅ Backup created at config_backups/t1\n",
		"❌ Application failed to start: boom\n",
		"==========\nDeployment\n==========\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}
