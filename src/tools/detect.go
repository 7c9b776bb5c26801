package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"webstack-optimizer/src/hostexec"
)

// Spec names a host binary the tool depends on.
type Spec struct {
	Name        string
	VersionArgs []string
	// MinVersion is optional; empty means any version is accepted.
	MinVersion string
	// Optional binaries only produce a warning when missing.
	Optional bool
}

// BinaryInfo describes a detected CLI binary.
type BinaryInfo struct {
	Name    string
	Path    string
	Version string
}

// Defaults are the binaries the optimizer shells out to.
var Defaults = []Spec{
	{Name: "redis-cli", VersionArgs: []string{"--version"}},
	{Name: "python3", VersionArgs: []string{"--version"}, MinVersion: "3.8.0"},
	{Name: "gunicorn", VersionArgs: []string{"--version"}, Optional: true},
}

var versionRegexp = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?(?:[-+][A-Za-z0-9.]+)?)`)

// Detect locates name on PATH and queries its version with versionArgs.
func Detect(ctx context.Context, runner hostexec.Runner, name string, versionArgs ...string) (BinaryInfo, error) {
	exe, err := runner.LookPath(name)
	if err != nil {
		return BinaryInfo{Name: name}, fmt.Errorf("%s binary not found on PATH: %w", name, err)
	}
	ver, err := queryVersion(ctx, runner, name, exe, versionArgs)
	if err != nil {
		return BinaryInfo{Name: name, Path: exe}, err
	}
	return BinaryInfo{Name: name, Path: exe, Version: ver}, nil
}

func queryVersion(ctx context.Context, runner hostexec.Runner, name, exe string, args []string) (string, error) {
	// Guard against commands that hang by applying a short timeout.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	res, runErr := runner.Run(ctx, hostexec.Command{Name: exe, Args: args})
	version := ExtractVersion(res.Stdout)
	if version == "" {
		// Older interpreters print their version on stderr.
		version = ExtractVersion(res.Stderr)
	}
	if version == "" {
		if runErr != nil {
			return "", fmt.Errorf("%s: version command failed: %w", name, runErr)
		}
		return "", errors.New(name + ": could not parse version output")
	}
	if runErr != nil {
		return "", fmt.Errorf("%s: version command failed: %w", name, runErr)
	}
	return version, nil
}

// ExtractVersion returns the first version-looking token in output, or "".
func ExtractVersion(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if m := versionRegexp.FindStringSubmatch(scanner.Text()); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// IsCompatible reports whether version is at or above the floor min. An
// empty min always matches. A pre-release sorts below its release.
func IsCompatible(version, min string) bool {
	if strings.TrimSpace(min) == "" {
		return true
	}
	have, havePre, ok := splitVersion(version)
	if !ok {
		return false
	}
	want, wantPre, ok := splitVersion(min)
	if !ok {
		return false
	}
	for i := range want {
		if have[i] != want[i] {
			return have[i] > want[i]
		}
	}
	return !havePre || wantPre
}

// splitVersion reads "X.Y[.Z][-pre][+build]". A missing patch is zero.
func splitVersion(s string) (nums [3]int, pre bool, ok bool) {
	core, _, _ := strings.Cut(strings.TrimSpace(s), "+")
	core, _, pre = strings.Cut(core, "-")
	fields := strings.Split(core, ".")
	if len(fields) < 2 || len(fields) > 3 {
		return nums, false, false
	}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nums, false, false
		}
		nums[i] = n
	}
	return nums, pre, true
}
