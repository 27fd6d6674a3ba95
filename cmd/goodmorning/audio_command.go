package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"goodmorning/internal/audio"
	"goodmorning/internal/media/ffprobe"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Play and tag audio files",
	}
	audioCmd.AddCommand(newAudioTagsCommand(ctx))
	audioCmd.AddCommand(newAudioPlayCommand(ctx))
	audioCmd.AddCommand(newAudioFixCommand(ctx))
	return audioCmd
}

func newAudioTagsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tags <file>...",
		Short: "Print the stream and format tags of audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			all := make(map[string]map[string]string, len(args))
			for _, file := range args {
				tags, err := ffprobe.Tags(cmd.Context(), ctx.runner, cfg.FFprobeBinary(), file)
				if err != nil {
					return err
				}
				all[file] = tags
			}
			if jsonOutput {
				return writeJSON(cmd, all)
			}
			out := cmd.OutOrStdout()
			for i, file := range args {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, file)
				tags := all[file]
				keys := make([]string, 0, len(tags))
				for k := range tags {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, []string{k, tags[k]})
				}
				fmt.Fprintln(out, renderTable([]string{"Tag", "Value"}, rows, nil))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON keyed by file")
	return cmd
}

func newAudioPlayCommand(ctx *commandContext) *cobra.Command {
	var noShuffle bool
	var volume int

	cmd := &cobra.Command{
		Use:   "play <file-or-dir>...",
		Short: "Play audio files in random order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			collection, err := audio.Collect(args, cfg.Audio.Extensions)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d files in %d directories\n", len(collection.Files), collection.Dirs)
			if len(collection.Files) == 0 {
				return nil
			}
			if !noShuffle {
				audio.Shuffle(collection.Files, nil)
			}
			if !cmd.Flags().Changed("volume") {
				volume = cfg.Audio.Volume
			}
			player := &audio.Player{
				Runner:  ctx.runner,
				FFprobe: cfg.FFprobeBinary(),
				FFplay:  cfg.FFplayBinary(),
				Volume:  volume,
				Out:     out,
				Color:   isTerminal(out),
			}
			return player.Play(cmd.Context(), collection.Files)
		},
	}

	cmd.Flags().BoolVar(&noShuffle, "no-shuffle", false, "Play in the order found")
	cmd.Flags().IntVar(&volume, "volume", 0, "ffplay volume 0-100 (defaults to audio.volume)")
	return cmd
}

func newAudioFixCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix <file-or-dir>...",
		Short: "Set the url and copyright tags, asking once per artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			collection, err := audio.Collect(args, cfg.Audio.Extensions)
			if err != nil {
				return err
			}
			fixer := &audio.Fixer{
				Runner:  ctx.runner,
				FFprobe: cfg.FFprobeBinary(),
				FFmpeg:  cfg.FFmpegBinary(),
				In:      cmd.InOrStdin(),
				Out:     cmd.OutOrStdout(),
			}
			if err := fixer.Fix(cmd.Context(), collection.Files); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fixed %d files\n", len(collection.Files))
			return nil
		},
	}
	return cmd
}
