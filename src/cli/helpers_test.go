package cli_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"webstack-optimizer/src/cli"
	"webstack-optimizer/src/hostexec"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	_, err := cmd.ExecuteC()
	return out.String(), errBuf.String(), err
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// newProject returns a checkout with app.py and requirements.txt.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "app.py"), "app = Flask(__name__)\n")
	mustWrite(t, filepath.Join(dir, "requirements.txt"), "flask\n")
	return dir
}

// writeSettings points the health check at url and both launches at cmd.
func writeSettings(t *testing.T, dir, url string, cmd []string) {
	t.Helper()
	quoted := make([]string, len(cmd))
	for i, c := range cmd {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	list := "[" + strings.Join(quoted, ", ") + "]"
	mustWrite(t, filepath.Join(dir, "webstack-optimizer.yaml"), fmt.Sprintf(`health:
  url: %q
launch:
  app_command: %s
  process_manager_command: %s
  startup_timeout: 3s
  poll_interval: 20ms
  max_poll_interval: 100ms
  stop_timeout: 2s
`, url, list, list))
}

func fakeApp(t *testing.T, status string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": status})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/health"
}

// deadURL is a health URL that refuses connections, so only the child's exit
// can end the readiness poll.
func deadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL + "/health"
}

// fakeRedis answers the ping with PONG.
func fakeRedis(t *testing.T) *hostexec.FakeRunner {
	t.Helper()
	f := hostexec.NewFake()
	f.Respond("redis-cli", "PONG\n", "")
	t.Cleanup(cli.SetHostRunnerForTest(f))
	return f
}
