// Package shortcuts lists the Karabiner-Elements complex modification rules,
// as a reminder of which key combinations are set up.
package shortcuts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

type karabinerConfig struct {
	Profiles []struct {
		Name                 string `json:"name"`
		ComplexModifications struct {
			Rules []struct {
				Description string `json:"description"`
			} `json:"rules"`
		} `json:"complex_modifications"`
	} `json:"profiles"`
}

// Load returns the rule descriptions of the first profile in the
// karabiner.json at path, sorted.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read karabiner config: %w", err)
	}
	return Parse(data)
}

// Parse extracts sorted rule descriptions from karabiner.json content.
func Parse(data []byte) ([]string, error) {
	var cfg karabinerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse karabiner config: %w", err)
	}
	if len(cfg.Profiles) == 0 {
		return nil, errors.New("karabiner config has no profiles")
	}
	rules := cfg.Profiles[0].ComplexModifications.Rules
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Description)
	}
	sort.Strings(out)
	return out, nil
}

// Render prints the descriptions under a heading.
func Render(w io.Writer, descriptions []string) {
	fmt.Fprintln(w, "Karabiner shortcuts:")
	for _, d := range descriptions {
		fmt.Fprintf(w, " %s\n", d)
	}
}
