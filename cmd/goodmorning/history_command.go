package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"goodmorning/internal/history"
	"goodmorning/internal/logging"
)

// recordHistory stores a finished run. History is best effort: a failure
// is logged and does not change the command's outcome.
func recordHistory(ctx context.Context, c *commandContext, run history.Run, results []history.TaskResult) {
	logger, err := c.ensureLogger()
	if err != nil {
		logger = logging.NewNop()
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return
	}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "open run history failed", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run was not recorded"),
		)
		return
	}
	defer store.Close()
	// The run itself may have been cancelled; recording it should not be.
	if _, err := store.Record(context.WithoutCancel(ctx), run, results); err != nil {
		logging.WarnWithContext(logger, "record run failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run was not recorded"),
		)
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent runs, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.Recent(cmd.Context(), kind, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						shortID(r.ID),
						r.Kind,
						r.Name,
						humanize.Time(r.StartedAt),
						r.Duration.Round(time.Second).String(),
						strconv.Itoa(r.Succeeded),
						strconv.Itoa(r.Failed),
						strconv.Itoa(r.Skipped),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "Name", "Started", "Duration", "OK", "Failed", "Skipped"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only show runs of this kind (profile or moments)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the task results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results, err := store.Results(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, struct {
						Run     history.Run          `json:"run"`
						Results []history.TaskResult `json:"results"`
					}{run, results})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s %s) on %s\n", run.ID, run.Kind, run.Name, run.Host)
				fmt.Fprintf(out, "Started %s, took %s\n", run.StartedAt.Local().Format(time.DateTime), run.Duration.Round(time.Second))
				if run.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", run.Error)
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						strings.Repeat("  ", r.Depth) + lastSegment(r.Path),
						r.Status,
						r.Duration.Round(time.Millisecond).String(),
						firstLine(r.Error),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Task", "Status", "Duration", "Error"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 100, "Number of runs to keep")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, " / "); idx >= 0 {
		return path[idx+3:]
	}
	return path
}
