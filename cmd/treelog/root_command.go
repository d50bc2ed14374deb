package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "treelog",
		Short:         "Inspect and smoke-test treelog logging configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newCheckCommand(),
		newTreeCommand(),
		newEmitCommand(),
		newSampleCommand(),
	)
	return cmd
}
