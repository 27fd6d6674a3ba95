package tasks

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"goodmorning/internal/machine"
)

// Kind identifies what a task does.
type Kind string

const (
	KindKillProc      Kind = "kill-proc"
	KindHomebrew      Kind = "homebrew"
	KindVolta         Kind = "volta"
	KindExec          Kind = "exec"
	KindGroup         Kind = "group"
	KindFunc          Kind = "func"
	KindRepoUpdate    Kind = "repo-update"
	KindOpenURL       Kind = "open-url"
	KindStartApp      Kind = "start-app"
	KindFileNameCheck Kind = "file-name-check"
	KindSyncConflict  Kind = "sync-conflict"
)

var knownKinds = []Kind{
	KindKillProc, KindHomebrew, KindVolta, KindExec, KindGroup, KindFunc,
	KindRepoUpdate, KindOpenURL, KindStartApp, KindFileNameCheck, KindSyncConflict,
}

// Repo update actions.
const (
	ActionPullRebase = "pull&rebase"
	ActionPush       = "push"
	ActionYarn       = "yarn"
)

// Link is a labelled URL opened by an open-url task.
type Link struct {
	Label string `toml:"label"`
	URL   string `toml:"url"`
}

// Task is one node of a profile. Which fields matter depends on Type.
type Task struct {
	Name     string `toml:"name"`
	Type     Kind   `toml:"type"`
	Machines any    `toml:"machines"`

	// kill-proc
	Processes []string `toml:"processes"`
	// homebrew, volta
	Packages []string `toml:"packages"`
	// exec
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Shell   bool     `toml:"shell"`
	// exec, repo-update, file-name-check, sync-conflict
	Dir string `toml:"dir"`
	// func
	Check  string         `toml:"check"`
	Params map[string]any `toml:"params"`
	// repo-update
	Actions []string `toml:"actions"`
	// open-url
	Links       []Link `toml:"links"`
	TabsCommand string `toml:"tabs_command"`
	// start-app
	Apps []string `toml:"apps"`
	// file-name-check
	Flag          string `toml:"flag"`
	OpenOnFailure bool   `toml:"open_on_failure"`
	// group
	Tasks []Task `toml:"tasks"`

	spec machine.Spec
}

// DisplayName returns the task name, falling back to its kind.
func (t *Task) DisplayName() string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return string(t.Type)
}

// Spec returns the machine spec parsed by Validate.
func (t *Task) Spec() machine.Spec {
	return t.spec
}

// Profile is a named task tree, e.g. "morning".
type Profile struct {
	Name  string `toml:"-"`
	Path  string `toml:"-"`
	Tasks []Task `toml:"task"`
}

// LoadProfile decodes a profile file. Call Validate before running it.
func LoadProfile(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer file.Close()

	var profile Profile
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	profile.Path = path
	profile.Name = profileName(path)
	return &profile, nil
}

func profileName(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".toml")
}
