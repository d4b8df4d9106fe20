package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/mark/internal/adapters/detector"
	"go.trai.ch/mark/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Complete the given tasks, or the pipeline root",
		Long: "Run resolves the targets and their dependencies, skips every task whose\n" +
			"output already exists and runs the rest in dependency order.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.runOptions(cmd)
			if err != nil {
				return err
			}
			_, err = c.app.Run(cmd.Context(), args, opts)
			return err
		},
	}
	addRunFlags(cmd)
	cmd.Flags().BoolP("force", "f", false, "Re-run the named targets even if their outputs exist")
	cmd.Flags().BoolP("inspect", "i", false, "Keep the TUI open after the run completes")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("keep-going", "k", false, "Keep running independent tasks after a failure")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of tasks running at once (default: pipeline setting or CPU count)")
	cmd.Flags().Duration("timeout", 0, "Deadline for every task run (default: pipeline setting)")
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, tui or linear")
}

func (c *CLI) runOptions(cmd *cobra.Command) (app.RunOptions, error) {
	output, _ := cmd.Flags().GetString("output")
	mode, err := detector.ParseMode(output)
	if err != nil {
		return app.RunOptions{}, err
	}

	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	jobs, _ := cmd.Flags().GetInt("jobs")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	opts := app.RunOptions{
		Dir:         c.dir,
		KeepGoing:   keepGoing,
		Parallelism: jobs,
		TaskTimeout: timeout,
		OutputMode:  mode,
	}
	if f := cmd.Flags().Lookup("force"); f != nil {
		opts.Force, _ = cmd.Flags().GetBool("force")
	}
	if f := cmd.Flags().Lookup("inspect"); f != nil {
		opts.Inspect, _ = cmd.Flags().GetBool("inspect")
	}
	return opts, nil
}
