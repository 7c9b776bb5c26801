package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd returns the root cobra command for the webstack-optimizer CLI.
// The root command itself is the optimizer: --backup, --restore, --optimize
// and --test run in that order.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	a := &app{stdout: stdout, stderr: stderr}
	cmd := &cobra.Command{
		Use:   "webstack-optimizer",
		Short: "Back up, optimize and smoke-test a Flask/Gunicorn/Redis deployment",
		Long: `Back up the application's configuration files, rewrite the rate-limiter and
Gunicorn settings from templates, and smoke-test the application.

Actions requested together always run in the order backup, restore, optimize, test.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)
	addOptimizerFlags(cmd, a)

	// Subcommands
	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newDeployCmd(a))
	cmd.AddCommand(newRunTestsCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newPruneCmd(a))
	cmd.AddCommand(newDoctorCmd(a))

	return cmd
}

// Execute runs the CLI with the process stdio. Interrupts cancel the running
// action so a probed application is still stopped.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
