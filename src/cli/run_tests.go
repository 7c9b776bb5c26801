package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"webstack-optimizer/src/testrunner"
)

const bannerWidth = 80

func newRunTestsCmd(a *app) *cobra.Command {
	var (
		testType  string
		specific  string
		verbose   bool
		verbosity int
		pattern   string
	)
	cmd := &cobra.Command{
		Use:   "run-tests",
		Short: "Run the application's unittest suites by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := testrunner.ParseCategory(testType)
			if err != nil {
				return err
			}
			if verbose {
				verbosity = 3
			}
			r := a.testRunner(verbosity, pattern)
			ctx := cmdContext(cmd)

			var sum testrunner.Summary
			if specific != "" {
				sum, err = r.RunSpecific(ctx, specific)
			} else {
				sum, err = r.Run(ctx, cat)
			}
			if err != nil {
				return err
			}
			a.printSuites(sum, verbosity)
			if sum.ExitCode() != 0 {
				return fmt.Errorf("%d of %d tests failed", sum.Failed(), sum.Total())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&testType, "type", "t", "all", "Type of tests to run: unit|integration|api|end_to_end|all")
	cmd.Flags().StringVarP(&specific, "specific", "s", "", "Run a specific test module (e.g., 'input_validation')")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Increase output verbosity")
	cmd.Flags().IntVar(&verbosity, "verbosity", 2, "unittest verbosity 0-2")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Pattern to match test files (default from settings, test_*.py)")
	return cmd
}

func (a *app) printSuites(sum testrunner.Summary, verbosity int) {
	for _, s := range sum.Suites {
		a.ui.Info("")
		a.ui.Banner("Running "+s.Name, bannerWidth)
		a.ui.Info("")
		if s.NoTests {
			a.ui.Warn("No tests found")
		} else if verbosity > 0 {
			a.ui.Info("%s", strings.TrimRight(s.Output, "\n"))
		}
		a.ui.Info("\nCompleted %s: %d tests, %d failures\n", s.Name, s.Ran, s.Failures+s.Errors)
	}

	a.ui.Info("")
	a.ui.Banner(fmt.Sprintf("Test Summary: %d tests, %d failures", sum.Total(), sum.Failed()), bannerWidth)
	for _, s := range sum.Suites {
		line := fmt.Sprintf("%s: %s", s.Name, s.Status())
		if !s.NoTests {
			line += fmt.Sprintf(" (%d run, %d failures, %d errors, %d skipped)", s.Ran, s.Failures, s.Errors, s.Skipped)
		}
		switch {
		case s.NoTests:
			a.ui.Hint("%s", line)
		case s.Passed():
			a.ui.Success("%s", line)
		default:
			a.ui.Fail("%s", line)
		}
	}
}
