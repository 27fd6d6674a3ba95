package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"goodmorning/internal/dates"
	"goodmorning/internal/priorities"
	"goodmorning/internal/quotes"
	"goodmorning/internal/shortcuts"
)

func newDatesCommand(ctx *commandContext) *cobra.Command {
	var window int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List birthdays, anniversaries and other dates coming up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := dates.Load(cfg.Dates.File)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("window") {
				window = cfg.Dates.WindowDays
			}
			upcoming, err := dates.Within(entries, time.Now(), window)
			if err != nil {
				return err
			}
			if jsonOutput {
				if upcoming == nil {
					upcoming = []dates.Upcoming{}
				}
				return writeJSON(cmd, upcoming)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Upcoming dates (next %d days)\n", window)
			if len(upcoming) == 0 {
				fmt.Fprintln(out, "  nothing coming up")
				return nil
			}
			rows := make([][]string, 0, len(upcoming))
			for _, u := range upcoming {
				rows = append(rows, []string{
					u.Name,
					dates.FormatDate(u.Date),
					strconv.Itoa(u.DaysAway),
					u.Notes,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Date", "Days", "Notes"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().IntVar(&window, "window", dates.DefaultWindow, "Days ahead to include (defaults to dates.window_days)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newPrioritiesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "priorities",
		Short: "Print the current priorities and maintenance items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			list, err := priorities.Load(cfg.Priorities.File)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, list)
			}
			priorities.Render(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func loadQuotes(ctx *commandContext) (quotes.Collections, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return quotes.Collections{}, err
	}
	return quotes.Load(cfg.Quotes.File)
}

func newRememberCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remember",
		Short: "Print a random thing to remember",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collections, err := loadQuotes(ctx)
			if err != nil {
				return err
			}
			q, err := quotes.Pick(collections.Remember, nil)
			if err != nil {
				return err
			}
			quotes.RenderRemember(cmd.OutOrStdout(), q)
			return nil
		},
	}
}

func newQuoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Print a random quote of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collections, err := loadQuotes(ctx)
			if err != nil {
				return err
			}
			q, err := quotes.Pick(collections.OfTheDay, nil)
			if err != nil {
				return err
			}
			quotes.RenderOfTheDay(cmd.OutOrStdout(), q)
			return nil
		},
	}
}

func newShortcutsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shortcuts",
		Short: "List the Karabiner-Elements complex modification rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			descriptions, err := shortcuts.Load(cfg.Shortcuts.KarabinerFile)
			if err != nil {
				return err
			}
			shortcuts.Render(cmd.OutOrStdout(), descriptions)
			return nil
		},
	}
}
