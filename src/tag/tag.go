package tag

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the timestamp format backup tags are derived from.
const Layout = "20060102_150405"

// PreOptimization prefixes the tag of the backup taken before configs are rewritten.
const PreOptimization = "pre_optimization"

// ErrInvalid is returned for tags that cannot name a backup directory.
var ErrInvalid = errors.New("invalid backup tag")

// New derives a tag from the local time of now.
func New(now time.Time) string {
	return now.Local().Format(Layout)
}

// WithPrefix returns "<prefix>_<timestamp>".
func WithPrefix(prefix string, now time.Time) string {
	return prefix + "_" + New(now)
}

// Parse validates an operator-supplied tag. Tags name a single directory
// under the backup root, so separators, dot entries and hidden names are
// refused.
func Parse(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: tag must not be empty", ErrInvalid)
	}
	if strings.ContainsAny(s, `/\`) {
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalid, raw)
	}
	if strings.HasPrefix(s, ".") {
		return "", fmt.Errorf("%w: %q must not start with '.'", ErrInvalid, raw)
	}
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: %q contains a NUL byte", ErrInvalid, raw)
	}
	return s, nil
}

// Time recovers the timestamp embedded in a derived tag, with or without a
// prefix. ok is false for tags that were supplied by hand.
func Time(t string) (time.Time, bool) {
	if len(t) < len(Layout) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(Layout, t[len(t)-len(Layout):], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
