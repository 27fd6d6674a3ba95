package checks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"goodmorning/internal/shell"
)

// BrewOutdated upgrades outdated formulae, or with upgrade = false fails
// listing them.
func BrewOutdated(ctx context.Context, env *Env, params Params) error {
	upgrade, err := params.Bool("upgrade", true)
	if err != nil {
		return err
	}
	res, err := env.run(ctx, "brew", "outdated")
	if err != nil {
		return err
	}
	outdated := shell.Lines(res.Stdout)
	if len(outdated) == 0 {
		return nil
	}
	if !upgrade {
		return fmt.Errorf("%d outdated packages: %s", len(outdated), strings.Join(outdated, ", "))
	}
	// some upgrades need sudo
	if _, err := env.sudo(ctx, "brew", "upgrade"); err != nil {
		return fmt.Errorf("brew upgrade: %w", err)
	}
	return nil
}

// BrewCleanup frees disk space held by old versions.
func BrewCleanup(ctx context.Context, env *Env, _ Params) error {
	_, err := env.run(ctx, "brew", "cleanup")
	return err
}

// BrewDoctor runs every doctor check except those listed in skip.
func BrewDoctor(ctx context.Context, env *Env, params Params) error {
	skip, err := params.Strings("skip", []string{"check_for_config_scripts"})
	if err != nil {
		return err
	}
	res, err := env.run(ctx, "brew", "doctor", "--list-checks")
	if err != nil {
		return err
	}
	var selected []string
	for _, check := range shell.Lines(res.Stdout) {
		if !slices.Contains(skip, check) {
			selected = append(selected, check)
		}
	}
	_, err = env.run(ctx, "brew", append([]string{"doctor"}, selected...)...)
	return err
}
