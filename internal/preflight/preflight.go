package preflight

import (
	"goodmorning/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Sync directory", cfg.Paths.SyncDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryReadable("Tasks directory", cfg.Tasks.Dir),
		CheckFile("Default profile", cfg.ProfilePath(""), true),
		CheckFile("Gardens file", cfg.GardensPath(), true),
		CheckFile("Dates file", cfg.Dates.File, false),
		CheckFile("Priorities file", cfg.Priorities.File, false),
		CheckFile("Quotes file", cfg.Quotes.File, false),
		CheckFile("Karabiner file", cfg.Shortcuts.KarabinerFile, false),
	}
	return results
}

// Failed returns the results that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}
