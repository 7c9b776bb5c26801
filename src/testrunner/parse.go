package testrunner

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ranRegexp    = regexp.MustCompile(`(?m)^Ran (\d+) tests? in `)
	failedRegexp = regexp.MustCompile(`(?m)^FAILED \(([^)]*)\)`)
	okRegexp     = regexp.MustCompile(`(?m)^OK(?: \(([^)]*)\))?\s*$`)
	noTests      = regexp.MustCompile(`(?m)^NO TESTS RAN`)
)

// Counts is what a unittest transcript reports.
type Counts struct {
	Ran      int
	Failures int
	Errors   int
	Skipped  int
	// Parsed is false when no result line was found.
	Parsed bool
	// NoTests is set for "NO TESTS RAN" transcripts.
	NoTests bool
}

// ParseOutput reads the summary lines unittest's text runner prints.
func ParseOutput(out string) Counts {
	var c Counts
	if m := ranRegexp.FindStringSubmatch(out); m != nil {
		c.Ran, _ = strconv.Atoi(m[1])
		c.Parsed = true
	}
	if noTests.MatchString(out) {
		c.NoTests = true
		c.Parsed = true
		return c
	}
	if m := failedRegexp.FindStringSubmatch(out); m != nil {
		c.Parsed = true
		applyDetails(&c, m[1])
	} else if m := okRegexp.FindStringSubmatch(out); m != nil {
		c.Parsed = true
		applyDetails(&c, m[1])
	}
	return c
}

// applyDetails reads "failures=1, errors=2, skipped=3".
func applyDetails(c *Counts, details string) {
	for _, part := range strings.Split(details, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		switch strings.TrimSpace(k) {
		case "failures":
			c.Failures = n
		case "errors":
			c.Errors = n
		case "skipped":
			c.Skipped = n
		}
	}
}
