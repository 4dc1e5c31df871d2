// Package commands implements the ashcheck CLI.
package commands

import (
	"context"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
)

// Version is overridden at link time.
var Version = "dev"

type CLI struct {
	logger  *slog.Logger
	rootCmd *cobra.Command
}

// New creates the CLI. The logger is handed to every registry the commands build.
func New(logger *slog.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "ashcheck",
		Short:         "Validate and inspect YAML cache definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	c := &CLI{
		logger:  logger,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newNameCmd())
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

// SetOutput redirects both stdout and stderr of every command.
func (c *CLI) SetOutput(out io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(out)
}
