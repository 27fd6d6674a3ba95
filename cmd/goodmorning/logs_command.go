package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"goodmorning/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var contains string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the goodmorning log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFile()
			keep := lineFilter(runID, contains)

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines, keep)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, keep, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only lines of the run with this id (see history list)")
	cmd.Flags().StringVar(&contains, "grep", "", "Only lines containing this text")
	return cmd
}

func lineFilter(runID, contains string) func(string) bool {
	runID = strings.TrimSpace(runID)
	if runID == "" && contains == "" {
		return nil
	}
	return func(line string) bool {
		if runID != "" && !strings.Contains(line, runID) {
			return false
		}
		return contains == "" || strings.Contains(line, contains)
	}
}
