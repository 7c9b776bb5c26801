package testrunner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webstack-optimizer/src/hostexec"
	"webstack-optimizer/src/testrunner"
)

const passing = `test_a (test_x.T.test_a) ... ok
test_b (test_x.T.test_b) ... ok

----------------------------------------------------------------------
Ran 2 tests in 0.001s

OK
`

const failing = `F.s
======================================================================
FAIL: test_a (test_y.T.test_a)
----------------------------------------------------------------------
Ran 3 tests in 0.002s

FAILED (failures=1, skipped=1)
`

func project(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		p := filepath.Join(dir, "tests", filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("import unittest\n"), 0o644))
	}
	return dir
}

func newRunner(dir string, f *hostexec.FakeRunner) *testrunner.Runner {
	return testrunner.New(testrunner.Options{
		ProjectDir: dir,
		TestsDir:   filepath.Join(dir, "tests"),
		Verbosity:  2,
	}, f, zap.NewNop())
}

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"unit", "integration", "api", "end_to_end", "all", "UNIT"} {
		_, err := testrunner.ParseCategory(in)
		assert.NoError(t, err, in)
	}
	c, err := testrunner.ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, testrunner.All, c)
	_, err = testrunner.ParseCategory("smoke")
	assert.Error(t, err)
	assert.Equal(t, "End-to-End Tests", testrunner.EndToEnd.Title())
}

func TestParseOutput(t *testing.T) {
	c := testrunner.ParseOutput(passing)
	assert.Equal(t, testrunner.Counts{Ran: 2, Parsed: true}, c)

	c = testrunner.ParseOutput(failing)
	assert.Equal(t, testrunner.Counts{Ran: 3, Failures: 1, Skipped: 1, Parsed: true}, c)

	c = testrunner.ParseOutput("Ran 4 tests in 0.1s\n\nFAILED (errors=2)\n")
	assert.Equal(t, 2, c.Errors)

	c = testrunner.ParseOutput("Ran 5 tests in 0.1s\n\nOK (skipped=2)\n")
	assert.Equal(t, testrunner.Counts{Ran: 5, Skipped: 2, Parsed: true}, c)

	c = testrunner.ParseOutput("\n----\nRan 0 tests in 0.000s\n\nNO TESTS RAN\n")
	assert.True(t, c.NoTests)

	assert.False(t, testrunner.ParseOutput("Traceback (most recent call last):\n").Parsed)
}

func TestRunCategory_EmptyDirectoryIsNotAFailure(t *testing.T) {
	dir := project(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tests", "unit"), 0o755))
	f := hostexec.NewFake()

	sum, err := newRunner(dir, f).Run(context.Background(), testrunner.Unit)
	require.NoError(t, err)
	require.Len(t, sum.Suites, 1)
	assert.True(t, sum.Suites[0].NoTests)
	assert.Equal(t, "NO TESTS RUN", sum.Suites[0].Status())
	assert.Equal(t, 0, sum.Total())
	assert.Equal(t, 0, sum.ExitCode())
	assert.Equal(t, 0, f.CallCount(), "python should not be started for an empty directory")
}

func TestRunCategory_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	sum, err := newRunner(dir, hostexec.NewFake()).Run(context.Background(), testrunner.API)
	require.NoError(t, err)
	assert.True(t, sum.Suites[0].NoTests)
	assert.Equal(t, 0, sum.ExitCode())
}

func TestRunCategory_InvokesUnittest(t *testing.T) {
	dir := project(t, "unit/test_x.py", "unit/helpers.py", "unit/pkg/test_nested.py")
	f := hostexec.NewFake()
	f.Respond("python3", "", passing)

	r := newRunner(dir, f)
	files, err := r.Discover(testrunner.Unit)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/test_nested.py", "test_x.py"}, files)

	s, err := r.RunCategory(context.Background(), testrunner.Unit)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Ran)
	assert.Equal(t, "PASSED", s.Status())

	require.Len(t, f.Calls, 1)
	call := f.Calls[0]
	assert.Equal(t, dir, call.Dir)
	assert.Equal(t, []string{"-m", "unittest", "discover", "-s", filepath.Join(dir, "tests", "unit"), "-p", "test_*.py", "-v"}, call.Args)
}

func TestRun_AllAggregates(t *testing.T) {
	dir := project(t, "unit/test_x.py", "api/test_y.py")
	f := hostexec.NewFake()
	f.Respond("python3 -m unittest discover -s "+filepath.Join(dir, "tests", "unit")+" -p test_*.py -v", "", passing)
	f.Fail("python3 -m unittest discover -s "+filepath.Join(dir, "tests", "api")+" -p test_*.py -v", 1, "", failing)

	sum, err := newRunner(dir, f).Run(context.Background(), testrunner.All)
	require.NoError(t, err)
	require.Len(t, sum.Suites, 4)
	assert.Equal(t, "PASSED", sum.Suites[0].Status())
	assert.Equal(t, "NO TESTS RUN", sum.Suites[1].Status())
	assert.Equal(t, "FAILED", sum.Suites[2].Status())
	assert.Equal(t, "NO TESTS RUN", sum.Suites[3].Status())
	assert.Equal(t, 5, sum.Total())
	assert.Equal(t, 1, sum.Failed())
	assert.Equal(t, 1, sum.ExitCode())
}

func TestRun_CrashWithoutSummaryCountsAsError(t *testing.T) {
	dir := project(t, "unit/test_x.py")
	f := hostexec.NewFake()
	f.Fail("python3", 1, "", "ImportError: No module named travel_agent\n")

	sum, err := newRunner(dir, f).Run(context.Background(), testrunner.Unit)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Suites[0].Errors)
	assert.Equal(t, 1, sum.ExitCode())
}

func TestRun_PythonMissing(t *testing.T) {
	dir := project(t, "unit/test_x.py")
	_, err := newRunner(dir, hostexec.NewFake()).Run(context.Background(), testrunner.Unit)
	assert.Error(t, err)
}

func TestRunSpecific(t *testing.T) {
	dir := project(t, "unit/test_input_validation.py", "integration/test_other.py")
	f := hostexec.NewFake()
	f.Respond("python3", "", passing)

	sum, err := newRunner(dir, f).RunSpecific(context.Background(), "input_validation")
	require.NoError(t, err)
	require.Len(t, sum.Suites, 1)
	assert.Equal(t, "tests.unit.test_input_validation", sum.Suites[0].Module)
	assert.Equal(t, []string{"-m", "unittest", "-v", "tests.unit.test_input_validation"}, f.Calls[0].Args)

	_, err = newRunner(dir, f).RunSpecific(context.Background(), "nope")
	assert.True(t, errors.Is(err, testrunner.ErrNotFound), "got %v", err)
}

func TestVerbosityFlags(t *testing.T) {
	dir := project(t, "unit/test_x.py")
	f := hostexec.NewFake()
	f.Respond("python3", "", passing)
	r := testrunner.New(testrunner.Options{ProjectDir: dir, TestsDir: filepath.Join(dir, "tests"), Verbosity: 0}, f, nil)
	_, err := r.RunCategory(context.Background(), testrunner.Unit)
	require.NoError(t, err)
	assert.Equal(t, "-q", f.Calls[0].Args[len(f.Calls[0].Args)-1])
}
