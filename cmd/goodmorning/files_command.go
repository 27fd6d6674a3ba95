package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"goodmorning/internal/filenames"
	"goodmorning/internal/filestats"
	"goodmorning/internal/fileutil"
	"goodmorning/internal/shell"
)

// errFileNames is returned by files check when a name fails a check.
var errFileNames = errors.New("file name check failed")

var standaloneAnnotations = map[string]string{"skipConfigLoad": "true"}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	filesCmd := &cobra.Command{
		Use:         "files",
		Short:       "File listings, size distributions and name checks",
		Annotations: standaloneAnnotations,
	}
	filesCmd.AddCommand(newFilesListCommand())
	filesCmd.AddCommand(newFilesDistributionCommand())
	filesCmd.AddCommand(newFilesCheckCommand(ctx))
	return filesCmd
}

// forEachInput runs fn for every input concurrently and prints the lines it
// returns in input order once all have finished.
func forEachInput(ctx context.Context, out io.Writer, inputs []string, fn func(input string) ([]string, error)) error {
	var mu sync.Mutex
	lines := make(map[string][]string, len(inputs))
	err := fileutil.ForEach(ctx, inputs, runtime.NumCPU(), func(_ context.Context, input string) error {
		result, err := fn(input)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		mu.Lock()
		lines[input] = result
		mu.Unlock()
		return nil
	})
	for _, input := range inputs {
		for _, line := range lines[input] {
			fmt.Fprintln(out, line)
		}
	}
	return err
}

func newFilesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir>...",
		Short: "Write <dir>-files-stats.json with every file and its size",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachInput(cmd.Context(), cmd.OutOrStdout(), args, func(dir string) ([]string, error) {
				out, n, err := filestats.WriteListing(dir)
				if err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("Wrote %d files to %s", n, out)}, nil
			})
		},
	}
}

func newFilesDistributionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "distribution <listing.json>...",
		Short: "Bin a file listing by size and write <listing>-size-distribution.json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachInput(cmd.Context(), cmd.OutOrStdout(), args, func(listing string) ([]string, error) {
				out, dist, err := filestats.WriteDistribution(listing)
				if err != nil {
					return nil, err
				}
				rows := make([][]string, 0, len(dist.Bins))
				for _, bin := range dist.Bins {
					rows = append(rows, []string{
						bin.Label,
						strconv.Itoa(bin.Count),
						strconv.FormatFloat(bin.Percent, 'f', 2, 64) + "%",
					})
				}
				return []string{
					fmt.Sprintf("%s (%d files)", listing, dist.Total),
					renderTable([]string{"Size", "Files", "Percent"}, rows,
						[]columnAlignment{alignLeft, alignRight, alignRight}),
					"Wrote " + out,
				}, nil
			})
		},
	}
}

func newFilesCheckCommand(ctx *commandContext) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "check <dir>",
		Short: "Check the file names in a directory against the naming rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			report, err := filenames.Scan(dir, filenames.DefaultChecks())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			if report.OK() {
				return nil
			}
			if open {
				if _, err := ctx.runner.Run(cmd.Context(), shell.Command{Name: "open", Args: []string{dir}}); err != nil {
					return fmt.Errorf("open %s: %w", dir, err)
				}
			}
			return fmt.Errorf("%s: %w", dir, errFileNames)
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the directory when a check fails")
	return cmd
}
