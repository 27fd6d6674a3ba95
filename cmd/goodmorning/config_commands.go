package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"goodmorning/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print the configuration",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var target string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: standaloneAnnotations,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initTarget(target)
			if err != nil {
				return err
			}
			if !overwrite {
				_, err := os.Stat(path)
				switch {
				case err == nil:
					return fmt.Errorf("%s already exists (pass --overwrite to replace it)", path)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check %s: %w", path, err)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", path)
			fmt.Fprintln(out, "Next: set the hostname patterns under [machines] and add task profiles to the tasks directory.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "path", "p", "", "Where to write the file (defaults to ~/.config/goodmorning/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flag string) (string, error) {
	if strings.TrimSpace(flag) == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(strings.TrimSpace(flag))
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configExists {
				fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			} else {
				fmt.Fprintf(out, "Config path: %s (missing, using defaults)\n", ctx.configPath)
			}
			fmt.Fprintf(out, "Machines: %s\n", strings.Join(sortedKeys(cfg.Machines), ", "))
			if _, host, current, err := ctx.machines(); err == nil {
				fmt.Fprintf(out, "This host: %s (%s)\n", host, strings.Join(current, ", "))
			} else {
				fmt.Fprintf(out, "This host: %v\n", err)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			enc := toml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndentTables(true)
			return enc.Encode(cfg)
		},
	}
}
