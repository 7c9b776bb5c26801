package safety

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive is returned when a confirmation is needed but stdin is
// not a terminal and --yes was not given.
var ErrNotInteractive = errors.New("refusing to prompt on a non-interactive stdin; pass --yes")

// Options are the global flags that govern destructive actions.
type Options struct {
	DryRun bool
	Yes    bool
}

// Confirm prompts the user to confirm a potentially destructive action.
// - If opts.DryRun is true, it returns false but no error (no action should be taken).
// - If opts.Yes is true, it returns true without prompting.
// The caller decides what to do with the result.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.DryRun {
		// No changes in dry-run mode; treat as declined.
		return false, nil
	}
	if opts.Yes {
		return true, nil
	}
	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		return false, ErrNotInteractive
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	ans := strings.TrimSpace(strings.ToLower(line))
	return ans == "y" || ans == "yes", nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
