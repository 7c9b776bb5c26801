package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webstack-optimizer/src/safety"
)

func newPruneCmd(a *app) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest N backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep <= 0 {
				return errors.New("--keep must be > 0")
			}
			mgr := a.backups()
			toDelete, err := mgr.PruneCandidates(keep)
			if err != nil {
				return err
			}

			// Preview
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tCREATED\tACTION")
			for _, e := range toDelete {
				fmt.Fprintf(tw, "%s\t%s\tdelete\n", e.Tag, formatTime(e.CreatedAt))
			}
			_ = tw.Flush()

			opts := getSafetyOptions(cmd)
			if opts.DryRun || len(toDelete) == 0 {
				return nil
			}
			ok, err := safety.Confirm(opts, cmd.InOrStdin(), a.stdout, fmt.Sprintf("Delete %d backups?", len(toDelete)))
			if err != nil || !ok {
				return err
			}
			for _, e := range toDelete {
				if err := mgr.Remove(e.Tag); err != nil {
					return err
				}
			}
			a.ui.Success("Deleted %d backups", len(toDelete))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 3, "Number of recent backups to keep")
	return cmd
}
