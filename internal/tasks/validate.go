package tasks

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"goodmorning/internal/checks"
	"goodmorning/internal/machine"
)

// Validate parses every task's machine spec and checks kind-specific
// fields. All problems are reported together.
func Validate(profile *Profile, machines *machine.Map, registry checks.Registry) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	if len(profile.Tasks) == 0 {
		return fmt.Errorf("profile %s has no tasks", profile.Name)
	}
	v := validator{machines: machines, registry: registry}
	for i := range profile.Tasks {
		v.task(&profile.Tasks[i], fmt.Sprintf("task[%d]", i), true)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	machines *machine.Map
	registry checks.Registry
	errs     []error
}

func (v *validator) fail(path string, task *Task, format string, args ...any) {
	label := path
	if task.Name != "" {
		label = fmt.Sprintf("%s (%s)", path, task.Name)
	}
	v.errs = append(v.errs, fmt.Errorf("%s: %s", label, fmt.Sprintf(format, args...)))
}

func (v *validator) task(task *Task, path string, topLevel bool) {
	spec, err := machine.ParseSpec(task.Machines)
	if err != nil {
		v.fail(path, task, "%v", err)
	} else {
		task.spec = spec
		if spec.Inherit && topLevel {
			v.fail(path, task, "top-level tasks cannot inherit machines")
		}
		for _, name := range spec.Names {
			if v.machines != nil && !v.machines.Has(name) {
				v.fail(path, task, "unknown machine %q", name)
			}
		}
	}

	if !slices.Contains(knownKinds, task.Type) {
		v.fail(path, task, "unknown task type %q", task.Type)
		return
	}
	if task.Type != KindGroup && len(task.Tasks) > 0 {
		v.fail(path, task, "only group tasks can have subtasks")
	}

	switch task.Type {
	case KindKillProc:
		v.require(path, task, len(task.Processes) > 0, "processes")
	case KindHomebrew, KindVolta:
		v.require(path, task, len(task.Packages) > 0, "packages")
	case KindExec:
		v.require(path, task, strings.TrimSpace(task.Command) != "", "command")
		if task.Shell && len(task.Args) > 0 {
			v.fail(path, task, "shell commands take no args; put them in command")
		}
	case KindGroup:
		v.require(path, task, len(task.Tasks) > 0, "tasks")
		for i := range task.Tasks {
			v.task(&task.Tasks[i], fmt.Sprintf("%s.tasks[%d]", path, i), false)
		}
	case KindFunc:
		if v.require(path, task, task.Check != "", "check") && v.registry != nil {
			if _, ok := v.registry[task.Check]; !ok {
				v.fail(path, task, "unknown check %q (known: %s)", task.Check, strings.Join(v.registry.Names(), ", "))
			}
		}
	case KindRepoUpdate:
		v.require(path, task, task.Dir != "", "dir")
		v.require(path, task, len(task.Actions) > 0, "actions")
		for _, action := range task.Actions {
			if action != ActionPullRebase && action != ActionPush && action != ActionYarn {
				v.fail(path, task, "unknown repo action %q", action)
			}
		}
	case KindOpenURL:
		v.require(path, task, len(task.Links) > 0, "links")
		for _, link := range task.Links {
			if u, err := url.Parse(link.URL); err != nil || u.Scheme == "" {
				v.fail(path, task, "link %q has invalid url %q", link.Label, link.URL)
			}
		}
	case KindStartApp:
		v.require(path, task, len(task.Apps) > 0, "apps")
	case KindFileNameCheck, KindSyncConflict:
		v.require(path, task, task.Dir != "", "dir")
	}
}

func (v *validator) require(path string, task *Task, ok bool, field string) bool {
	if !ok {
		v.fail(path, task, "%s task requires %s", task.Type, field)
	}
	return ok
}
