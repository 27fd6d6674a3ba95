package momentgarden

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Garden is one entry of the gardens file. Cookies are copied from a
// logged-in browser session.
type Garden struct {
	Name     string   `toml:"name"`
	GardenID string   `toml:"garden_id"`
	Cookies  []string `toml:"cookies"`
}

type gardensFile struct {
	Gardens []Garden `toml:"garden"`
}

// LoadGardens reads the [[garden]] tables from path.
func LoadGardens(path string) ([]Garden, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gardens file: %w", err)
	}
	var file gardensFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gardens file %s: %w", path, err)
	}
	if len(file.Gardens) == 0 {
		return nil, fmt.Errorf("gardens file %s: no [[garden]] entries", path)
	}
	var errs []error
	seen := make(map[string]bool, len(file.Gardens))
	for i, g := range file.Gardens {
		switch {
		case strings.TrimSpace(g.Name) == "":
			errs = append(errs, fmt.Errorf("garden %d: name is required", i+1))
		case strings.ContainsAny(g.Name, `/\`):
			errs = append(errs, fmt.Errorf("garden %q: name must not contain path separators", g.Name))
		case seen[g.Name]:
			errs = append(errs, fmt.Errorf("garden %q: duplicate name", g.Name))
		}
		seen[g.Name] = true
		if strings.TrimSpace(g.GardenID) == "" {
			errs = append(errs, fmt.Errorf("garden %q: garden_id is required", g.Name))
		}
		if len(g.Cookies) == 0 {
			errs = append(errs, fmt.Errorf("garden %q: cookies are required", g.Name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return file.Gardens, nil
}

// Select filters gardens by name, keeping file order. No names selects all.
func Select(gardens []Garden, names []string) ([]Garden, error) {
	if len(names) == 0 {
		return gardens, nil
	}
	byName := make(map[string]Garden, len(gardens))
	for _, g := range gardens {
		byName[g.Name] = g
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown garden %q", name)
		}
		wanted[name] = true
	}
	var out []Garden
	for _, g := range gardens {
		if wanted[g.Name] {
			out = append(out, g)
		}
	}
	return out, nil
}
