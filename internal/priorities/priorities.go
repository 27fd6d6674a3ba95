// Package priorities prints the current priorities file.
package priorities

import (
	"fmt"
	"io"

	"goodmorning/internal/fileutil"
)

// Item is one priority.
type Item struct {
	Category    string `toml:"category" yaml:"category" json:"category"`
	Description string `toml:"description" yaml:"description" json:"description"`
}

// List groups priorities by urgency. Only Priorities and Maintenance are
// printed; the other lists are kept in the file for reference.
type List struct {
	Priorities  []Item `toml:"priorities" yaml:"priorities" json:"priorities"`
	LowPriority []Item `toml:"low_priority" yaml:"low_priority" json:"low_priority,omitempty"`
	Maintenance []Item `toml:"maintenance" yaml:"maintenance" json:"maintenance"`
	OldStuff    []Item `toml:"old_stuff" yaml:"old_stuff" json:"old_stuff,omitempty"`
}

// Load reads a TOML or YAML priorities file.
func Load(path string) (List, error) {
	var list List
	if err := fileutil.ReadDocument(path, &list); err != nil {
		return List{}, fmt.Errorf("load priorities: %w", err)
	}
	return list, nil
}

// Render writes the Priorities and Maintenance sections.
func Render(w io.Writer, list List) {
	section(w, "Priorities", list.Priorities)
	fmt.Fprintln(w)
	section(w, "Maintenance", list.Maintenance)
}

func section(w io.Writer, title string, items []Item) {
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - (%s) %s\n", item.Category, item.Description)
	}
}
