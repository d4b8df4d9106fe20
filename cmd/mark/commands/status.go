package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [targets...]",
		Short: "Show which tasks a run would execute",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := c.app.Status(cmd.Context(), args, c.dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TASK\tSTATE\tTARGET\tMATERIALIZED")
			for _, s := range states {
				state := "done"
				if s.WouldRun {
					state = "pending"
				}
				at := "-"
				if !s.MaterializedAt.IsZero() {
					at = s.MaterializedAt.Local().Format(time.DateTime)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Task, state, s.Target, at)
			}
			return w.Flush()
		},
	}
}
