package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"goodmorning/internal/history"
	"goodmorning/internal/instance"
	"goodmorning/internal/machine"
	"goodmorning/internal/momentgarden"
	"goodmorning/internal/notifications"
	"goodmorning/internal/textutil"
)

func newMomentsCommand(ctx *commandContext) *cobra.Command {
	var full bool
	var limit int
	var gardenNames []string
	var skipMetadata bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "moments",
		Short: "Mirror Moment Garden metadata and media",
		Long: "Moments pages through each garden's listing, caches new items as JSON,\n" +
			"fetches comments for items that have them, and downloads images and videos\n" +
			"that are not on disk yet. Media is stored next to the gardens file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			gardensPath := cfg.GardensPath()
			gardens, err := momentgarden.LoadGardens(gardensPath)
			if err != nil {
				return err
			}
			gardens, err = momentgarden.Select(gardens, gardenNames)
			if err != nil {
				return err
			}

			root := filepath.Dir(gardensPath)
			lock, err := instance.Acquire(filepath.Join(root, ".moment-garden.lock"), "goodmorning moments")
			if err != nil {
				return err
			}
			defer lock.Release()

			if !cmd.Flags().Changed("limit") {
				limit = cfg.MomentGarden.DownloadLimit
			}
			mg := cfg.MomentGarden
			opts := momentgarden.Options{
				PerPage:          mg.PerPage,
				Full:             full,
				Limit:            limit,
				RequestInterval:  time.Duration(mg.RequestIntervalSeconds) * time.Second,
				DownloadInterval: time.Duration(mg.DownloadIntervalSeconds) * time.Second,
				SkipMetadata:     skipMetadata,
				Session: func(g momentgarden.Garden) momentgarden.Source {
					return momentgarden.NewClient(momentgarden.ClientOptions{
						BaseURL:      mg.BaseURL,
						CommentsPath: mg.CommentsPath,
						UserAgent:    mg.UserAgent,
						Cookies:      g.Cookies,
						Timeout:      time.Duration(mg.RequestTimeout) * time.Second,
					})
				},
			}

			out := cmd.OutOrStdout()
			progress := out
			if jsonOutput {
				progress = cmd.ErrOrStderr()
			}
			var waiter momentgarden.Waiter = momentgarden.SilentWaiter{}
			if isTerminal(progress) {
				waiter = momentgarden.SpinnerWaiter{Out: progress}
			}

			started := time.Now()
			syncer := momentgarden.NewSyncer(nil, opts, logger, progress, waiter)
			reports, syncErr := syncer.Sync(cmd.Context(), root, gardens)

			if jsonOutput {
				if reports == nil {
					reports = []momentgarden.GardenReport{}
				}
				if err := writeJSON(cmd, reports); err != nil {
					return err
				}
			} else {
				printGardenReports(out, reports)
			}

			run, results := history.FromGardenReports(reports, syncErr)
			run.StartedAt = started
			run.Duration = time.Since(started)
			if host, err := machine.Hostname(); err == nil {
				run.Host = host
			}
			recordHistory(cmd.Context(), ctx, run, results)

			notifyOutcome(cmd.Context(), cfg, logger, "moments", syncErr, func(svc notifications.Service) error {
				return svc.NotifyMomentsCompleted(cmd.Context(), reports)
			})
			return syncErr
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Page through every listing page instead of stopping at known items")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum files to download per garden (0 for no limit; defaults to moment_garden.download_limit)")
	cmd.Flags().StringSliceVarP(&gardenNames, "garden", "g", nil, "Only sync the named garden (repeatable)")
	cmd.Flags().BoolVar(&skipMetadata, "skip-metadata", false, "Only download media for already cached metadata")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the garden reports as JSON")
	return cmd
}

func printGardenReports(out io.Writer, reports []momentgarden.GardenReport) {
	if len(reports) == 0 {
		return
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		note := ""
		if r.Downloads.LimitHit {
			note = "limit hit"
		}
		rows = append(rows, []string{
			textutil.Title(r.Garden),
			strconv.Itoa(r.Metadata.New),
			strconv.Itoa(r.Downloads.Downloaded),
			humanize.Bytes(uint64(r.Downloads.Bytes)),
			strconv.Itoa(len(r.Downloads.Errors)),
			note,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Garden", "New items", "Downloaded", "Size", "Errors", ""},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}
