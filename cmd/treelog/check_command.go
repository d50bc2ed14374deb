package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"treelog/config"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config.toml>",
		Short: "Validate a logging configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s is invalid:\n%w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: configuration OK (%d appenders, %d loggers)\n",
				args[0], len(cfg.Appenders), len(cfg.Loggers))
			return nil
		},
	}
}

func newSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print an annotated sample configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.Sample())
			return nil
		},
	}
}
