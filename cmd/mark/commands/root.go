// Package commands implements the CLI commands for mark.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/mark/internal/app"
	"go.trai.ch/mark/internal/build"
	"go.trai.ch/mark/internal/core/domain"
)

// Application is the slice of the application layer the CLI drives.
type Application interface {
	Run(ctx context.Context, targets []string, opts app.RunOptions) (*domain.Report, error)
	Status(ctx context.Context, targets []string, dir string) ([]app.TaskState, error)
	Clean(ctx context.Context, targets []string, opts app.CleanOptions) ([]string, error)
	Watch(ctx context.Context, targets []string, opts app.RunOptions) error
}

// LogSettings is the part of the logger the global flags configure.
type LogSettings interface {
	SetJSON(enable bool)
}

// CLI represents the command line interface for mark.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command

	dir  string
	json bool
}

// New creates a new CLI instance with the given app. logs may be nil.
func New(a Application, logs LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "mark",
		Short:         "Run pipeline tasks whose outputs are missing",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logs:    logs,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().StringVarP(&c.dir, "dir", "C", "", "Run as if mark was started in `dir`")
	rootCmd.PersistentFlags().BoolVar(&c.json, "json", false, "Emit log messages as JSON")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if c.logs != nil {
			c.logs.SetJSON(c.json)
		}
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
