package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the output directory and state manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.runOptionsFromFlags(cmd, nil)
			if err != nil {
				return err
			}
			if err := os.RemoveAll(opts.OutputDir); err != nil {
				return err
			}
			if opts.StatePath != "" {
				if err := os.Remove(opts.StatePath); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			return nil
		},
	}
}
