package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"goodmorning/internal/instrumentation"
)

func newInstrumentationCommand(_ *commandContext) *cobra.Command {
	instrCmd := &cobra.Command{
		Use:         "instrumentation",
		Aliases:     []string{"instr"},
		Short:       "Analyze build instrumentation files",
		Annotations: standaloneAnnotations,
	}
	instrCmd.AddCommand(newSelfTimeCommand())
	instrCmd.AddCommand(newFSTimeCommand())
	instrCmd.AddCommand(newInstrumentationDiffCommand())
	return instrCmd
}

func newSelfTimeCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "selftime <instrumentation.json>...",
		Short: "Aggregate self time per node and per category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachInput(cmd.Context(), cmd.OutOrStdout(), args, func(input string) ([]string, error) {
				result, err := instrumentation.WriteSelfTime(input)
				if err != nil {
					return nil, err
				}
				var rows [][]string
				for i, s := range result.Stats {
					if top > 0 && i >= top {
						break
					}
					rows = append(rows, []string{s.ID, seconds(s.SelfTime), strconv.Itoa(s.Calls), percent(s.Percent)})
				}
				return []string{
					fmt.Sprintf("%s: %s total", input, seconds(result.TotalSeconds)),
					renderTable([]string{"Node", "Self time", "Calls", "Percent"}, rows,
						[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}),
					"Wrote " + instrumentation.SelfTimePath(input),
					"Wrote " + instrumentation.CombinedPath(input),
				}, nil
			})
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 20, "Rows to print (0 for all); the files always hold everything")
	return cmd
}

func newFSTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fstime <instrumentation.json>...",
		Short: "Sum file system and disk cache stats",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachInput(cmd.Context(), cmd.OutOrStdout(), args, func(input string) ([]string, error) {
				stats, missing, err := instrumentation.WriteFSTime(input)
				if err != nil {
					return nil, err
				}
				rows := make([][]string, 0, len(stats))
				for _, s := range stats {
					rows = append(rows, []string{s.Name, strconv.FormatInt(s.Count, 10), seconds(s.Time)})
				}
				lines := []string{
					input,
					renderTable([]string{"Stat", "Count", "Time"}, rows,
						[]columnAlignment{alignLeft, alignRight, alignRight}),
				}
				if len(missing) > 0 {
					lines = append(lines, "Not present: "+strings.Join(missing, ", "))
				}
				return append(lines, "Wrote "+instrumentation.FSStatsPath(input)), nil
			})
		},
	}
}

func newInstrumentationDiffCommand() *cobra.Command {
	var outDir string
	var buildBefore, buildAfter string
	var broccoliBefore, broccoliAfter string

	cmd := &cobra.Command{
		Use:   "diff <before.json> <after.json>",
		Short: "Compare the self-time outputs of two builds",
		Long: "Diff reads the -selftime.json and -combined.json files written by selftime\n" +
			"for both inputs. Directory prefixes that differ between the builds can be\n" +
			"rewritten so that the same node matches on both sides.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rewrites []instrumentation.Rewrite
			if buildBefore != "" || buildAfter != "" {
				rewrites = append(rewrites, instrumentation.Rewrite{
					Placeholder: instrumentation.BuildDirPlaceholder,
					Before:      buildBefore,
					After:       buildAfter,
				})
			}
			if broccoliBefore != "" || broccoliAfter != "" {
				rewrites = append(rewrites, instrumentation.Rewrite{
					Placeholder: instrumentation.BroccoliDirPlaceholder,
					Before:      broccoliBefore,
					After:       broccoliAfter,
				})
			}
			result, err := instrumentation.DiffFiles(args[0], args[1], outDir, rewrites)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(result.Combined))
			for _, c := range result.Combined {
				rows = append(rows, []string{c.ID, seconds(c.Time), strconv.Itoa(c.Calls), percent(c.Percent)})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Change", "Calls", "Percent"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
			fmt.Fprintf(out, "%d changed, %d gone, %d added\n", len(result.Changed), len(result.Gone), len(result.Added))
			fmt.Fprintf(out, "Wrote diff files to %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the diff files")
	cmd.Flags().StringVar(&buildBefore, "build-dir-before", "", "Build directory prefix in the before file")
	cmd.Flags().StringVar(&buildAfter, "build-dir-after", "", "Build directory prefix in the after file")
	cmd.Flags().StringVar(&broccoliBefore, "broccoli-dir-before", "", "Broccoli tmp prefix in the before file")
	cmd.Flags().StringVar(&broccoliAfter, "broccoli-dir-after", "", "Broccoli tmp prefix in the after file")
	return cmd
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "s"
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
