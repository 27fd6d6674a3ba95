package machine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultKey selects the value used when no current machine has an entry.
const DefaultKey = "default"

// Environment resolves [environment.VAR] tables for the current machines.
// The first current machine (in sorted order) with a value wins, then the
// default entry. Variables with neither are omitted. A leading "~/" expands
// to the home directory.
func Environment(table map[string]map[string]string, current []string) map[string]string {
	names := append([]string(nil), current...)
	sort.Strings(names)

	resolved := make(map[string]string, len(table))
	for variable, values := range table {
		value, ok := "", false
		for _, name := range names {
			if v, found := values[name]; found {
				value, ok = v, true
				break
			}
		}
		if !ok {
			value, ok = values[DefaultKey]
		}
		if !ok {
			continue
		}
		resolved[variable] = expandHome(value)
	}
	return resolved
}

// Environ renders vars as sorted KEY=VALUE entries for exec.
func Environ(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}
	return out
}

// Expand substitutes ${VAR} and $VAR from vars, falling back to the process
// environment.
func Expand(value string, vars map[string]string) string {
	return os.Expand(value, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

func expandHome(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return value
	}
	return filepath.Join(home, strings.TrimPrefix(value, "~"))
}
