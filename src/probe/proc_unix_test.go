//go:build !windows

package probe_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webstack-optimizer/src/hostexec"
	"webstack-optimizer/src/probe"
)

func TestProbe_ExitKillsBackgroundedChildren(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "leaked")
	p := probe.New(testOptions(closedURL()), hostexec.NewFake(), zap.NewNop())

	// the backgrounded subshell outlives its parent and would touch marker
	res, err := p.Probe(context.Background(), probe.Launch{
		Name:    "wrapper",
		Command: []string{"sh", "-c", `(sleep 3; touch "$0") & echo boom >&2; exit 1`, marker},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, probe.ErrExited), "got %v", err)
	assert.False(t, res.Started)
	assert.Less(t, res.Elapsed, 3*time.Second)

	time.Sleep(3500 * time.Millisecond)
	assert.NoFileExists(t, marker, "process group survived the failed launch")
}
