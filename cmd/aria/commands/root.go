// Package commands implements the CLI commands for the aria build tool.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"aria.build/aria/internal/app"
	"aria.build/aria/internal/build"
)

// CLI represents the command line interface for aria.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "aria",
		Short:         "An incremental, parallel build driver",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", app.DefaultConfigFile, "Path to the build-description file")
	rootCmd.PersistentFlags().StringP("output-dir", "o", app.DefaultOutputDir, "Artifact output directory")
	rootCmd.PersistentFlags().StringP("state", "s", "", "Path to the state manifest (defaults under the output directory)")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "Maximum parallel target executions (0 selects a default)")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Ignore cached state and rebuild everything requested")
	rootCmd.PersistentFlags().Bool("keep-going", false, "Keep building unaffected targets after a failure instead of aborting")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Report what would build without invoking the compiler or archiver")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCleanCmd())
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
