package commands

import (
	"github.com/spf13/cobra"

	"aria.build/aria/internal/app"
	"aria.build/aria/internal/engine/scheduler"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build the named targets, or every declared target if none are given",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.runOptionsFromFlags(cmd, args)
			if err != nil {
				return err
			}
			_, err = c.app.Run(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringArray("flag", nil, "Extra flag passed to the compiler for every target (repeatable)")
	return cmd
}

func (c *CLI) runOptionsFromFlags(cmd *cobra.Command, targets []string) (app.RunOptions, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return app.RunOptions{}, err
	}
	outputDir, err := flags.GetString("output-dir")
	if err != nil {
		return app.RunOptions{}, err
	}
	statePath, err := flags.GetString("state")
	if err != nil {
		return app.RunOptions{}, err
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return app.RunOptions{}, err
	}
	force, err := flags.GetBool("force")
	if err != nil {
		return app.RunOptions{}, err
	}
	keepGoing, err := flags.GetBool("keep-going")
	if err != nil {
		return app.RunOptions{}, err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return app.RunOptions{}, err
	}

	var globalFlags []string
	if flags.Lookup("flag") != nil {
		globalFlags, err = flags.GetStringArray("flag")
		if err != nil {
			return app.RunOptions{}, err
		}
	}

	policy := scheduler.FailFast
	if keepGoing {
		policy = scheduler.KeepGoing
	}

	return app.RunOptions{
		ConfigPath:  configPath,
		Targets:     targets,
		OutputDir:   outputDir,
		StatePath:   statePath,
		Force:       force,
		DryRun:      dryRun,
		Parallelism: jobs,
		Policy:      policy,
		GlobalFlags: globalFlags,
	}, nil
}
