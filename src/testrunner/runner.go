package testrunner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"webstack-optimizer/src/hostexec"
)

// ErrNotFound is returned when --specific matches no test module.
var ErrNotFound = errors.New("test module not found")

// exit status of unittest when nothing was collected (Python 3.12+)
const exitNoTests = 5

type Options struct {
	ProjectDir string
	// TestsDir holds one directory per category.
	TestsDir  string
	Python    string
	Pattern   string
	Verbosity int
}

// Suite is the outcome of one unittest invocation.
type Suite struct {
	Name     string        `json:"name"`
	Category Category      `json:"category,omitempty"`
	Module   string        `json:"module,omitempty"`
	Files    []string      `json:"files,omitempty"`
	Ran      int           `json:"ran"`
	Failures int           `json:"failures"`
	Errors   int           `json:"errors"`
	Skipped  int           `json:"skipped"`
	NoTests  bool          `json:"no_tests"`
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"-"`
	Duration time.Duration `json:"duration"`
}

func (s Suite) Passed() bool { return s.Failures == 0 && s.Errors == 0 }

func (s Suite) Status() string {
	switch {
	case s.NoTests:
		return "NO TESTS RUN"
	case s.Passed():
		return "PASSED"
	default:
		return "FAILED"
	}
}

type Summary struct {
	Suites []Suite `json:"suites"`
}

// Total is the number of tests run across suites.
func (s Summary) Total() int {
	n := 0
	for _, su := range s.Suites {
		n += su.Ran
	}
	return n
}

// Failed counts failures and errors across suites.
func (s Summary) Failed() int {
	n := 0
	for _, su := range s.Suites {
		n += su.Failures + su.Errors
	}
	return n
}

func (s Summary) ExitCode() int {
	if s.Failed() > 0 {
		return 1
	}
	return 0
}

// Runner discovers and runs Python unittest suites by category.
type Runner struct {
	opts Options
	exec hostexec.Runner
	log  *zap.Logger
}

func New(opts Options, runner hostexec.Runner, log *zap.Logger) *Runner {
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if opts.Pattern == "" {
		opts.Pattern = "test_*.py"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{opts: opts, exec: runner, log: log}
}

func (r *Runner) categoryDir(c Category) string {
	return filepath.Join(r.opts.TestsDir, string(c))
}

// Discover lists test files of c matching the pattern, relative to the
// category directory. A missing directory yields no files.
func (r *Runner) Discover(c Category) ([]string, error) {
	root := r.categoryDir(c)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "__pycache__") {
				return fs.SkipDir
			}
			return nil
		}
		ok, err := filepath.Match(r.opts.Pattern, d.Name())
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", r.opts.Pattern, err)
		}
		if ok {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Run runs one category, or every category in order for All.
func (r *Runner) Run(ctx context.Context, c Category) (Summary, error) {
	cats := []Category{c}
	if c == All {
		cats = Categories
	}
	var sum Summary
	for _, cat := range cats {
		s, err := r.RunCategory(ctx, cat)
		if err != nil {
			return sum, err
		}
		sum.Suites = append(sum.Suites, s)
	}
	return sum, nil
}

// RunCategory runs unittest discovery over one category directory. An empty
// or missing directory is reported as NoTests, not as a failure.
func (r *Runner) RunCategory(ctx context.Context, c Category) (Suite, error) {
	s := Suite{Name: c.Title(), Category: c}
	files, err := r.Discover(c)
	if err != nil {
		return s, err
	}
	s.Files = files
	if len(files) == 0 {
		r.log.Warn("no tests found", zap.String("dir", r.categoryDir(c)), zap.String("pattern", r.opts.Pattern))
		s.NoTests = true
		return s, nil
	}
	r.log.Info("running tests", zap.String("category", string(c)), zap.Int("files", len(files)))
	args := []string{"-m", "unittest", "discover", "-s", r.categoryDir(c), "-p", r.opts.Pattern}
	return r.invoke(ctx, s, append(args, r.verbosityFlags()...))
}

// RunSpecific runs every module whose file name starts with name, prefixed
// with "test_" when missing. Modules are looked up directly inside each
// category directory and run by dotted path from the project directory.
func (r *Runner) RunSpecific(ctx context.Context, name string) (Summary, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".py")
	if !strings.HasPrefix(name, "test_") {
		name = "test_" + name
	}
	var sum Summary
	for _, c := range Categories {
		entries, err := os.ReadDir(r.categoryDir(c))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return sum, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".py") || !strings.HasPrefix(e.Name(), name) {
				continue
			}
			module, err := r.modulePath(filepath.Join(r.categoryDir(c), e.Name()))
			if err != nil {
				return sum, err
			}
			r.log.Info("running specific test module", zap.String("module", module))
			s := Suite{Name: module, Category: c, Module: module, Files: []string{e.Name()}}
			args := append([]string{"-m", "unittest"}, r.verbosityFlags()...)
			s, err = r.invoke(ctx, s, append(args, module))
			if err != nil {
				return sum, err
			}
			sum.Suites = append(sum.Suites, s)
		}
	}
	if len(sum.Suites) == 0 {
		return sum, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return sum, nil
}

func (r *Runner) modulePath(file string) (string, error) {
	base, err := filepath.Abs(r.opts.ProjectDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("test module %s is outside the project directory", file)
	}
	rel = strings.TrimSuffix(rel, ".py")
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "."), nil
}

func (r *Runner) verbosityFlags() []string {
	switch {
	case r.opts.Verbosity <= 0:
		return []string{"-q"}
	case r.opts.Verbosity >= 2:
		return []string{"-v"}
	}
	return nil
}

func (r *Runner) invoke(ctx context.Context, s Suite, args []string) (Suite, error) {
	start := time.Now()
	res, err := r.exec.Run(ctx, hostexec.Command{Name: r.opts.Python, Args: args, Dir: r.opts.ProjectDir})
	s.Duration = time.Since(start)
	s.Output = res.Combined()
	s.ExitCode = res.ExitCode
	if err != nil && res.ExitCode < 0 {
		return s, fmt.Errorf("run %s: %w", r.opts.Python, err)
	}

	counts := ParseOutput(s.Output)
	s.Ran, s.Failures, s.Errors, s.Skipped = counts.Ran, counts.Failures, counts.Errors, counts.Skipped
	switch {
	case counts.NoTests || (res.ExitCode == exitNoTests && s.Ran == 0):
		s.NoTests = true
	case res.ExitCode != 0 && s.Passed():
		// import errors and crashes before the summary line
		s.Errors = 1
	}
	r.log.Info("tests finished", zap.String("suite", s.Name), zap.Int("ran", s.Ran),
		zap.Int("failures", s.Failures), zap.Int("errors", s.Errors), zap.Int("skipped", s.Skipped),
		zap.Duration("duration", s.Duration))
	return s, nil
}
