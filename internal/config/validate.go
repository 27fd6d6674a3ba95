package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// DefaultEnvironmentKey is the [environment.VAR] key used when no machine-specific value applies.
const DefaultEnvironmentKey = "default"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMachines(); err != nil {
		return err
	}
	if err := c.validateEnvironment(); err != nil {
		return err
	}
	if err := c.validateMomentGarden(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Dates.WindowDays < 0 {
		return errors.New("dates.window_days must be >= 0")
	}
	if c.Audio.Volume > 100 {
		return errors.New("audio.volume must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateMachines() error {
	for _, name := range sortedKeys(c.Machines) {
		if strings.EqualFold(name, "inherit") || name == DefaultEnvironmentKey {
			return fmt.Errorf("machines.%s: reserved machine name", name)
		}
		pattern := c.Machines[name]
		if pattern == "" {
			return fmt.Errorf("machines.%s: hostname pattern must be set", name)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("machines.%s: invalid hostname pattern: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validateEnvironment() error {
	for _, variable := range sortedKeys(c.Environment) {
		if strings.TrimSpace(variable) == "" || strings.ContainsAny(variable, "= ") {
			return fmt.Errorf("environment: invalid variable name %q", variable)
		}
		for machine := range c.Environment[variable] {
			if machine == DefaultEnvironmentKey {
				continue
			}
			if _, ok := c.Machines[machine]; !ok {
				return fmt.Errorf("environment.%s: unknown machine %q", variable, machine)
			}
		}
	}
	return nil
}

func (c *Config) validateMomentGarden() error {
	mg := c.MomentGarden
	parsed, err := url.Parse(mg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("moment_garden.base_url must be an absolute URL, got %q", mg.BaseURL)
	}
	if strings.Count(mg.CommentsPath, "%s") != 1 {
		return errors.New("moment_garden.comments_path must contain exactly one %s placeholder for the moment id")
	}
	if mg.DownloadLimit < 0 {
		return errors.New("moment_garden.download_limit must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
