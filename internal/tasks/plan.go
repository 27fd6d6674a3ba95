package tasks

import (
	"strings"

	"goodmorning/internal/machine"
)

// PlanEntry describes whether a task would run on the current machines.
type PlanEntry struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Machines []string `json:"machines"`
	Inherit  bool     `json:"inherit,omitempty"`
	Runs     bool     `json:"runs"`
	Depth    int      `json:"depth"`
}

// Plan lists every task in profile order with its effective machines,
// without executing anything. Children of a task that does not run never run.
func Plan(profile *Profile, current []string) []PlanEntry {
	var entries []PlanEntry
	var walk func(tasks []Task, parentPath string, parentMachines []string, parentRuns bool, depth int)
	walk = func(tasks []Task, parentPath string, parentMachines []string, parentRuns bool, depth int) {
		for i := range tasks {
			task := &tasks[i]
			effective := task.spec.Effective(parentMachines)
			path := joinPath(parentPath, task.DisplayName())
			runs := parentRuns && machine.Applies(effective, current)
			entries = append(entries, PlanEntry{
				Path:     path,
				Name:     task.DisplayName(),
				Kind:     task.Type,
				Machines: effective,
				Inherit:  task.spec.Inherit,
				Runs:     runs,
				Depth:    depth,
			})
			if task.Type == KindGroup {
				walk(task.Tasks, path, effective, runs, depth+1)
			}
		}
	}
	walk(profile.Tasks, "", nil, true, 0)
	return entries
}

// Binaries lists the external tools the tasks that would run on current
// need, for dependency checks.
func Binaries(profile *Profile, current []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names ...string) {
		for _, name := range names {
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	var walk func(tasks []Task, parentMachines []string)
	walk = func(tasks []Task, parentMachines []string) {
		for i := range tasks {
			task := &tasks[i]
			effective := task.spec.Effective(parentMachines)
			if !machine.Applies(effective, current) {
				continue
			}
			switch task.Type {
			case KindKillProc:
				add("pkill")
			case KindHomebrew:
				add("brew")
			case KindVolta:
				add("volta")
			case KindExec:
				if task.Shell {
					add("sh")
				} else if !strings.Contains(task.Command, "$") {
					add(task.Command)
				}
			case KindRepoUpdate:
				add("git")
				for _, action := range task.Actions {
					if action == ActionYarn {
						add("yarn")
					}
				}
			case KindOpenURL:
				add("open", task.TabsCommand)
			case KindGroup:
				walk(task.Tasks, effective)
			}
		}
	}
	walk(profile.Tasks, nil)
	return out
}
