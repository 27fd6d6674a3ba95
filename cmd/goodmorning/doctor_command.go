package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"goodmorning/internal/deps"
	"goodmorning/internal/preflight"
	"goodmorning/internal/tasks"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var profileName string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, personal files and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)

			results := preflight.RunAll(cfg)
			var profileBinaries []string
			loaded, err := ctx.loadProfile(profileName)
			if err != nil {
				results = append(results, preflight.Result{Name: "Task profile", Detail: err.Error()})
			} else {
				results = append(results, preflight.Result{
					Name:   "Task profile",
					Passed: true,
					Detail: fmt.Sprintf("%s on %s", loaded.profile.Name, loaded.host),
				})
				profileBinaries = tasks.Binaries(loaded.profile, loaded.current)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case r.Skipped:
					status = "skipped"
				case !r.Passed:
					status = "FAILED"
				}
				rows = append(rows, []string{r.Name, status, firstLine(r.Detail)})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			statuses := deps.CheckBinaries(deps.Requirements(cfg, profileBinaries))
			rows = rows[:0]
			for _, s := range statuses {
				status := "ok"
				switch {
				case s.Available:
				case s.Optional:
					status = "missing (optional)"
				default:
					status = "MISSING"
				}
				rows = append(rows, []string{s.Name, s.Command, status, s.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Status", "Used for"}, rows, nil))

			failed := len(preflight.Failed(results)) + len(deps.Missing(statuses))
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Task profile whose tools to check (defaults to tasks.default_profile)")
	return cmd
}
