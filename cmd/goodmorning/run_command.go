package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"goodmorning/internal/checks"
	"goodmorning/internal/history"
	"goodmorning/internal/instance"
	"goodmorning/internal/machine"
	"goodmorning/internal/notifications"
	"goodmorning/internal/runstate"
	"goodmorning/internal/tasks"
	"goodmorning/internal/textutil"
)

// loadedProfile is a validated profile plus the machine context it runs in.
type loadedProfile struct {
	profile *tasks.Profile
	host    string
	current []string
}

func (c *commandContext) loadProfile(name string) (loadedProfile, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return loadedProfile{}, err
	}
	machineMap, host, current, err := c.machines()
	if err != nil {
		return loadedProfile{}, err
	}
	profile, err := tasks.LoadProfile(cfg.ProfilePath(name))
	if err != nil {
		return loadedProfile{}, err
	}
	if err := tasks.Validate(profile, machineMap, checks.Builtin()); err != nil {
		return loadedProfile{}, fmt.Errorf("invalid profile %s:\n%w", profile.Name, err)
	}
	return loadedProfile{profile: profile, host: host, current: current}, nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var profileName string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run [secret]",
		Short: "Run a task profile on this machine",
		Long: "Run walks the task profile in order, skipping tasks that do not apply to\n" +
			"this machine and continuing past failures. The optional argument seeds the\n" +
			"configured secret variable.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.loadProfile(profileName)
			if err != nil {
				return err
			}
			if dryRun {
				return printPlan(cmd, loaded, jsonOutput)
			}
			var secret string
			if len(args) == 1 {
				secret = args[0]
			}
			return runProfile(cmd, ctx, loaded, secret, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Task profile to run (defaults to tasks.default_profile)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the tasks that would run without executing them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run summary as JSON")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var profileName string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which tasks of a profile apply to this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.loadProfile(profileName)
			if err != nil {
				return err
			}
			return printPlan(cmd, loaded, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Task profile to inspect (defaults to tasks.default_profile)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printPlan(cmd *cobra.Command, loaded loadedProfile, jsonOutput bool) error {
	entries := tasks.Plan(loaded.profile, loaded.current)
	if jsonOutput {
		return writeJSON(cmd, entries)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Profile %s on %s (%s)\n", loaded.profile.Name, loaded.host, strings.Join(loaded.current, ", "))
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		machines := strings.Join(e.Machines, ", ")
		if e.Inherit {
			machines += " (inherited)"
		}
		rows = append(rows, []string{
			strings.Repeat("  ", e.Depth) + e.Name,
			textutil.Title(string(e.Kind)),
			machines,
			yesNo(e.Runs),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Task", "Kind", "Machines", "Runs"}, rows, nil))
	return nil
}

func runProfile(cmd *cobra.Command, ctx *commandContext, loaded loadedProfile, secret string, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	profile := loaded.profile

	lockPath := filepath.Join(cfg.Paths.StateDir, "run-"+textutil.SanitizeToken(profile.Name)+".lock")
	lock, err := instance.Acquire(lockPath, "goodmorning run "+profile.Name)
	if err != nil {
		return err
	}
	defer lock.Release()

	state := runstate.New(machine.Environment(cfg.Environment, loaded.current))
	if secret != "" {
		if cfg.Tasks.SecretVar == "" {
			return errors.New("a secret was given but tasks.secret_var is not configured")
		}
		state.SetSecret(cfg.Tasks.SecretVar, secret)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	out := cmd.OutOrStdout()
	opts := tasks.Options{
		Runner:     ctx.runner,
		Logger:     logger,
		State:      state,
		RunID:      uuid.NewString(),
		Host:       loaded.host,
		Machines:   loaded.current,
		SyncDir:    cfg.Paths.SyncDir,
		Home:       home,
		SudoHelper: cfg.Tasks.SudoHelper,
		SecretVar:  cfg.Tasks.SecretVar,
	}
	if !jsonOutput {
		opts.OnResult = resultPrinter(out, isTerminal(out))
	}

	summary, runErr := tasks.NewRunner(opts).Run(cmd.Context(), profile)

	if jsonOutput {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		printSummary(out, summary)
	}

	run, results := history.FromSummary(summary, runErr)
	recordHistory(cmd.Context(), ctx, run, results)
	notifyOutcome(cmd.Context(), cfg, logger, "run", runErr, func(svc notifications.Service) error {
		return svc.NotifyRunCompleted(cmd.Context(), summary)
	})
	return runErr
}

// resultPrinter prints one line per finished task, indented by depth.
// Groups print when their children are done, so they follow them.
func resultPrinter(out io.Writer, useColor bool) func(tasks.Result) {
	ok := color.New(color.FgGreen)
	failed := color.New(color.FgRed, color.Bold)
	skipped := color.New(color.FgHiBlack)
	for _, c := range []*color.Color{ok, failed, skipped} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return func(r tasks.Result) {
		indent := strings.Repeat("  ", r.Depth)
		switch r.Status {
		case tasks.StatusOK:
			ok.Fprintf(out, "%s✔ %s\n", indent, r.Name)
		case tasks.StatusFailed:
			failed.Fprintf(out, "%s✖ %s\n", indent, r.Name)
			if r.Error != "" && r.Kind != tasks.KindGroup {
				for _, line := range strings.Split(strings.TrimRight(r.Error, "\n"), "\n") {
					fmt.Fprintf(out, "%s    %s\n", indent, line)
				}
			}
		case tasks.StatusSkipped:
			skipped.Fprintf(out, "%s↓ %s [skipped]\n", indent, r.Name)
		}
	}
}

func printSummary(out io.Writer, summary *tasks.Summary) {
	if summary == nil {
		return
	}
	if len(summary.FinalOutput) > 0 {
		fmt.Fprintln(out)
		for _, line := range summary.FinalOutput {
			fmt.Fprintln(out, line)
		}
	}
	succeeded, failed, skipped := summary.Counts()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d ok, %d failed, %d skipped in %s\n",
		succeeded, failed, skipped, summary.Duration.Round(100*time.Millisecond))
	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Path, textutil.Title(string(f.Kind)), firstLine(f.Error)})
	}
	fmt.Fprintln(out, renderTable([]string{"Failed task", "Kind", "Error"}, rows, nil))
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
