package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Run targets and re-run them whenever project files change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.runOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Watch(cmd.Context(), args, opts)
		},
	}
	addRunFlags(cmd)
	return cmd
}
