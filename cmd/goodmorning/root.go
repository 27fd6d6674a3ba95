package main

import (
	"github.com/spf13/cobra"

	"goodmorning/internal/shell"
)

func newRootCommand() *cobra.Command {
	return buildRootCommand(shell.ExecRunner{})
}

// buildRootCommand wires the command tree around runner, which every
// command that shells out uses.
func buildRootCommand(runner shell.Runner) *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, runner)

	rootCmd := &cobra.Command{
		Use:           "goodmorning",
		Short:         "Morning routine runner and personal utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newMomentsCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newAudioCommand(ctx))
	rootCmd.AddCommand(newFilesCommand(ctx))
	rootCmd.AddCommand(newInstrumentationCommand(ctx))
	rootCmd.AddCommand(newDatesCommand(ctx))
	rootCmd.AddCommand(newPrioritiesCommand(ctx))
	rootCmd.AddCommand(newRememberCommand(ctx))
	rootCmd.AddCommand(newQuoteCommand(ctx))
	rootCmd.AddCommand(newShortcutsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
