package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webstack-optimizer/src/backup"
)

func newVerifyCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "verify [TAG]",
		Short: "Verify backup checksums",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.backups()
			var results []backup.VerifyResult
			if len(args) == 1 {
				r, err := mgr.Verify(args[0])
				if err != nil {
					return err
				}
				results = []backup.VerifyResult{r}
			} else {
				all, err := mgr.VerifyAll(cmdContext(cmd))
				if err != nil {
					return err
				}
				results = all
			}

			switch output {
			case "json":
				if results == nil {
					results = []backup.VerifyResult{}
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			case "table", "":
				tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TAG\tSTATUS\tDETAIL")
				for _, r := range results {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Tag, r.Status, strings.Join(r.Problems, "; "))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}

			bad := 0
			for _, r := range results {
				if r.Status != backup.StatusOK {
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d backups failed verification", bad, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}
