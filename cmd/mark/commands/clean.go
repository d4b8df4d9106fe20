package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/mark/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [tasks...]",
		Short: "Remove task markers so the next run executes them again",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			outputs, _ := cmd.Flags().GetBool("outputs")
			if len(args) == 0 && !all {
				_ = cmd.Help()
				return nil
			}

			cleaned, err := c.app.Clean(cmd.Context(), args, app.CleanOptions{
				Dir:     c.dir,
				All:     all,
				Outputs: outputs,
			})
			for _, id := range cleaned {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return err
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Clean every task of the pipeline")
	cmd.Flags().Bool("outputs", false, "Also delete files that tasks produced themselves")

	return cmd
}
