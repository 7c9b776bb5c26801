package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webstack-optimizer/src/hostexec"
	"webstack-optimizer/src/tools"
)

func TestExtractVersion(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "redis-cli", input: "redis-cli 7.2.4\n", want: "7.2.4"},
		{name: "python", input: "Python 3.11.2\n", want: "3.11.2"},
		{name: "gunicorn", input: "gunicorn (version 21.2.0)\n", want: "21.2.0"},
		{name: "prerelease", input: "Python 3.13.0-rc1\n", want: "3.13.0-rc1"},
		{name: "no match", input: "unexpected output\n", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tools.ExtractVersion(tc.input))
		})
	}
}

func TestIsCompatible(t *testing.T) {
	assert.True(t, tools.IsCompatible("3.8.0", "3.8.0"))
	assert.True(t, tools.IsCompatible("3.12", "3.8.0"))
	assert.True(t, tools.IsCompatible("anything", ""))
	assert.False(t, tools.IsCompatible("3.7.17", "3.8.0"))
	assert.False(t, tools.IsCompatible("3.8.0-rc1", "3.8.0"))
	assert.False(t, tools.IsCompatible("garbage", "3.8.0"))
	assert.True(t, tools.IsCompatible("3.10.1", "3.9"), "minor versions compare numerically")
	assert.True(t, tools.IsCompatible("3.8.1+local", "3.8.0"))
	assert.False(t, tools.IsCompatible("3", "3.8.0"))
}

func TestDetect_FallsBackToStderr(t *testing.T) {
	f := hostexec.NewFake()
	f.Paths["python3"] = "/usr/bin/python3"
	f.Respond("/usr/bin/python3 --version", "", "Python 3.9.1\n")

	info, err := tools.Detect(context.Background(), f, "python3", "--version")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python3", info.Path)
	assert.Equal(t, "3.9.1", info.Version)
}

func TestDetect_NotOnPath(t *testing.T) {
	f := hostexec.NewFake()
	_, err := tools.Detect(context.Background(), f, "redis-cli", "--version")
	require.Error(t, err)
	assert.Equal(t, 0, f.CallCount())
}

func TestReport(t *testing.T) {
	f := hostexec.NewFake()
	f.Paths["redis-cli"] = "/usr/bin/redis-cli"
	f.Paths["python3"] = "/usr/bin/python3"
	f.Respond("/usr/bin/redis-cli --version", "redis-cli 7.2.4\n", "")
	f.Respond("/usr/bin/python3 --version", "Python 3.7.3\n", "")

	statuses := tools.Report(context.Background(), f, zap.NewNop(), tools.Defaults)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].OK())
	assert.False(t, statuses[1].OK(), "python 3.7 is below the minimum")
	assert.Error(t, statuses[2].Err)
	assert.False(t, tools.Healthy(statuses))

	f.Respond("/usr/bin/python3 --version", "Python 3.12.1\n", "")
	statuses = tools.Report(context.Background(), f, zap.NewNop(), tools.Defaults)
	assert.True(t, tools.Healthy(statuses), "missing gunicorn is optional")
}
