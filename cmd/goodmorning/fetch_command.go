package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"goodmorning/internal/config"
	"goodmorning/internal/fetch"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var selector string
	var timeout time.Duration
	var userAgent string

	cmd := &cobra.Command{
		Use:   "fetch <page-url> <dest>",
		Short: "Download the file linked from a web page",
		Long: "Fetch loads the page, takes the href (or src) of the first element matching\n" +
			"the CSS selector, and saves the linked file to dest.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			fetcher := fetch.New(timeout)
			if userAgent != "" {
				fetcher.UserAgent = userAgent
			}
			link, n, err := fetcher.Run(cmd.Context(), args[0], selector, dest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %s\n", link)
			fmt.Fprintf(out, "Saved %s to %s\n", humanize.Bytes(uint64(n)), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&selector, "selector", "s", "a[href]", "CSS selector of the link element")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Timeout for each request")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header (defaults to a desktop browser)")
	return cmd
}
