package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"treelog"
	"treelog/config"
)

func newTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <config.toml>",
		Short: "Show the resolved logger tree for a configuration",
		Long: "Builds the hierarchy described by the configuration and prints each\n" +
			"logger with its explicit level, the level actually in effect after\n" +
			"inheritance, its additivity flag, and its attached appenders.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s is invalid:\n%w", args[0], err)
			}
			h, err := config.Build(cfg)
			if err != nil {
				return err
			}
			defer h.Shutdown()

			fmt.Fprintf(cmd.OutOrStdout(), "threshold: %s\n", h.Threshold())
			fmt.Fprintln(cmd.OutOrStdout(), renderLoggerTable(h))
			return nil
		},
	}
}

func renderLoggerTable(h *treelog.Hierarchy) string {
	loggers := h.CurrentLoggers()
	sort.Slice(loggers, func(i, j int) bool { return loggers[i].Name() < loggers[j].Name() })
	loggers = append([]*treelog.Logger{h.Root()}, loggers...)

	rows := make([][]string, 0, len(loggers))
	for _, l := range loggers {
		explicit := "(inherited)"
		if level, ok := l.ExplicitLevel(); ok {
			explicit = level.String()
		}
		rows = append(rows, []string{
			l.Name(),
			explicit,
			l.EffectiveLevel().String(),
			fmt.Sprintf("%t", l.Additivity()),
			appenderNames(l.Appenders()),
		})
	}
	return renderTable([]string{"LOGGER", "LEVEL", "EFFECTIVE", "ADDITIVE", "APPENDERS"}, rows)
}

func appenderNames(list []treelog.Appender) string {
	if len(list) == 0 {
		return "-"
	}
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name())
	}
	return strings.Join(names, ", ")
}
