package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webstack-optimizer/src/tools"
)

var errDoctorFailed = errors.New("required tools are missing or too old")

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that redis-cli, python and gunicorn are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			statuses := tools.Report(ctx, a.runner, a.log.Named("doctor"), a.toolSpecs())

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATH\tVERSION\tSTATUS")
			for _, s := range statuses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Spec.Name, orDash(s.Info.Path), orDash(s.Info.Version), statusText(s))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			redisOK := a.checkDependency(ctx, a.prober())
			if !tools.Healthy(statuses) {
				return errDoctorFailed
			}
			if !redisOK {
				a.ui.Warn("Redis must be running before deploy or --test")
			}
			return nil
		},
	}
}

// toolSpecs follows the configured command lines so a custom interpreter or
// process manager is the one checked.
func (a *app) toolSpecs() []tools.Spec {
	specs := make([]tools.Spec, len(tools.Defaults))
	copy(specs, tools.Defaults)
	s := a.settings
	for i := range specs {
		switch specs[i].Name {
		case "redis-cli":
			if len(s.Redis.PingCommand) > 0 {
				specs[i].Name = s.Redis.PingCommand[0]
			}
		case "python3":
			specs[i].Name = s.Tests.Python
		case "gunicorn":
			specs[i].Name = s.Launch.ProcessManagerCommand[0]
		}
	}
	return specs
}

func statusText(s tools.Status) string {
	switch {
	case s.Err != nil && s.Spec.Optional:
		return "missing (optional)"
	case s.Err != nil:
		return "error: " + s.Err.Error()
	case !s.Compatible:
		return fmt.Sprintf("too old (need %s)", s.Spec.MinVersion)
	}
	return "ok"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
