package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"goodmorning/internal/checks"
	"goodmorning/internal/filenames"
	"goodmorning/internal/logging"
	"goodmorning/internal/machine"
	"goodmorning/internal/shell"
)

const (
	defaultNameCheckFlag = "file-name-errors"
	syncConflictMarker   = ".sync-conflict-"
)

func (r *Runner) execute(ctx context.Context, task *Task, effective []string) error {
	switch task.Type {
	case KindKillProc:
		return r.killProcesses(ctx, task.Processes)
	case KindHomebrew:
		return r.brewInstall(ctx, task.Packages)
	case KindVolta:
		return r.voltaInstall(ctx, task.Packages)
	case KindExec:
		return r.exec(ctx, task)
	case KindFunc:
		return r.opts.Checks.Run(ctx, task.Check, r.checkEnv(), checks.Params(task.Params))
	case KindRepoUpdate:
		return r.repoUpdate(ctx, r.expand(task.Dir), task.Actions)
	case KindOpenURL:
		return r.openURLs(ctx, task.Links, task.TabsCommand)
	case KindStartApp:
		return r.startApps(task.Apps)
	case KindFileNameCheck:
		return r.fileNameCheck(ctx, task)
	case KindSyncConflict:
		return r.syncConflicts(r.syncPath(task.Dir))
	default:
		return fmt.Errorf("unsupported task type %q", task.Type)
	}
}

func (r *Runner) run(ctx context.Context, dir, name string, args ...string) (shell.Result, error) {
	return r.opts.Runner.Run(ctx, shell.Command{
		Name: name,
		Args: args,
		Dir:  dir,
		Env:  machine.Environ(r.opts.State.Vars()),
	})
}

func (r *Runner) expand(value string) string {
	return machine.Expand(value, r.opts.State.Vars())
}

// syncPath resolves a directory relative to the sync root.
func (r *Runner) syncPath(dir string) string {
	dir = r.expand(dir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.opts.SyncDir, dir)
}

func (r *Runner) checkEnv() *checks.Env {
	return &checks.Env{
		Runner:     r.opts.Runner,
		State:      r.opts.State,
		Logger:     r.opts.Logger,
		Home:       r.opts.Home,
		SudoHelper: r.opts.SudoHelper,
		SecretVar:  r.opts.SecretVar,
		Sleep:      r.opts.Sleep,
	}
}

func (r *Runner) killProcesses(ctx context.Context, processes []string) error {
	var errs []error
	for _, name := range processes {
		_, err := r.run(ctx, "", "pkill", "-x", name)
		if code, ok := shell.ExitCode(err); ok && code == 1 {
			// nothing matched
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("kill %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// installedFormulae lists brew formulae and casks once per run.
func (r *Runner) installedFormulae(ctx context.Context) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.brewList != nil {
		return r.brewList, nil
	}
	installed := make(map[string]bool)
	for _, flag := range []string{"--formula", "--cask"} {
		res, err := r.run(ctx, "", "brew", "list", flag, "-1")
		if err != nil {
			return nil, fmt.Errorf("list installed brew packages: %w", err)
		}
		for _, name := range shell.Lines(res.Stdout) {
			installed[name] = true
		}
	}
	r.brewList = installed
	return installed, nil
}

func (r *Runner) brewInstall(ctx context.Context, packages []string) error {
	installed, err := r.installedFormulae(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, pkg := range packages {
		// tap formulae are listed by their short name
		if installed[path.Base(pkg)] {
			continue
		}
		r.logger.Info("installing brew package", logging.String("package", pkg))
		if _, err := r.run(ctx, "", "brew", "install", pkg); err != nil {
			errs = append(errs, fmt.Errorf("brew install %s: %w", pkg, err))
			continue
		}
		r.mu.Lock()
		r.brewList[path.Base(pkg)] = true
		r.mu.Unlock()
	}
	return errors.Join(errs...)
}

// splitPackageVersion splits "name@version" at the last '@' that is not the
// scope prefix of the name.
func splitPackageVersion(spec string) (name, version string) {
	idx := strings.LastIndex(spec, "@")
	if idx <= 0 {
		return spec, ""
	}
	return spec[:idx], spec[idx+1:]
}

func (r *Runner) installedVolta(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.voltaList != nil {
		return r.voltaList, nil
	}
	res, err := r.run(ctx, "", "volta", "list", "all", "--format", "plain")
	if err != nil {
		return nil, fmt.Errorf("list volta packages: %w", err)
	}
	installed := make(map[string]string)
	for _, line := range shell.Lines(res.Stdout) {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "package" {
			continue
		}
		name, version := splitPackageVersion(fields[1])
		installed[name] = version
	}
	r.voltaList = installed
	return installed, nil
}

func (r *Runner) voltaInstall(ctx context.Context, packages []string) error {
	installed, err := r.installedVolta(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, spec := range packages {
		name, version := splitPackageVersion(spec)
		if have, ok := installed[name]; ok && (version == "" || have == version) {
			continue
		}
		r.logger.Info("installing volta package", logging.String("package", spec))
		if _, err := r.run(ctx, "", "volta", "install", spec); err != nil {
			errs = append(errs, fmt.Errorf("volta install %s: %w", spec, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) exec(ctx context.Context, task *Task) error {
	command := r.expand(task.Command)
	dir := r.expand(task.Dir)
	if task.Shell {
		_, err := r.run(ctx, dir, "sh", "-c", command)
		return err
	}
	args := make([]string, 0, len(task.Args))
	for _, arg := range task.Args {
		args = append(args, r.expand(arg))
	}
	_, err := r.run(ctx, dir, command, args...)
	return err
}

func (r *Runner) repoUpdate(ctx context.Context, dir string, actions []string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("repository %s is not a directory", dir)
	}
	for _, action := range actions {
		switch action {
		case ActionPullRebase:
			res, err := r.run(ctx, dir, "git", "status", "--porcelain")
			if err != nil {
				return err
			}
			if changes := shell.Lines(res.Stdout); len(changes) > 0 {
				return fmt.Errorf("%s has %d uncommitted change(s), not pulling", dir, len(changes))
			}
			if _, err := r.run(ctx, dir, "git", "pull", "--rebase"); err != nil {
				return err
			}
		case ActionPush:
			if _, err := r.run(ctx, dir, "git", "push"); err != nil {
				return err
			}
		case ActionYarn:
			if _, err := r.run(ctx, dir, "yarn", "install"); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown repo action %q", action)
		}
	}
	return nil
}

// normalizeTabURL drops the fragment of Google Docs URLs, which changes as
// the document is scrolled.
func normalizeTabURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.Contains(u, "docs.google.com") {
		if idx := strings.Index(u, "#"); idx > 0 {
			return u[:idx]
		}
	}
	return u
}

func (r *Runner) openURLs(ctx context.Context, links []Link, tabsCommand string) error {
	open := make(map[string]bool)
	if tabsCommand != "" {
		res, err := r.run(ctx, "", tabsCommand)
		if err != nil {
			return fmt.Errorf("list open tabs: %w", err)
		}
		for _, tab := range shell.Lines(res.Stdout) {
			open[normalizeTabURL(tab)] = true
		}
	}
	var errs []error
	for _, link := range links {
		if open[normalizeTabURL(link.URL)] {
			continue
		}
		if _, err := r.run(ctx, "", "open", link.URL); err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", link.Label, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) startApps(apps []string) error {
	var errs []error
	for _, app := range apps {
		app = r.expand(app)
		cmd := shell.Command{Name: app, Env: machine.Environ(r.opts.State.Vars())}
		if strings.HasSuffix(strings.TrimSuffix(app, "/"), ".app") {
			cmd = shell.Command{Name: "open", Args: []string{"-a", app}}
		}
		if err := r.opts.Runner.Start(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) fileNameCheck(ctx context.Context, task *Task) error {
	dir := r.syncPath(task.Dir)
	report, err := filenames.Scan(dir, filenames.DefaultChecks())
	if err != nil {
		return err
	}
	if report.OK() {
		return nil
	}
	flag := task.Flag
	if flag == "" {
		flag = defaultNameCheckFlag
	}
	r.opts.State.SetFlag(flag)
	if task.OpenOnFailure {
		if _, err := r.run(ctx, "", "open", dir); err != nil {
			r.logger.Warn("could not open directory",
				logging.String("dir", dir),
				logging.Error(err),
			)
		}
	}
	return errors.New(report.String())
}

// FindSyncConflicts returns paths under root, relative to it, whose names
// contain the Syncthing conflict marker.
func FindSyncConflicts(root string) ([]string, error) {
	var conflicts []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.Contains(d.Name(), syncConflictMarker) {
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				rel = p
			}
			conflicts = append(conflicts, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(conflicts)
	return slices.Compact(conflicts), nil
}

func (r *Runner) syncConflicts(root string) error {
	conflicts, err := FindSyncConflicts(root)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	return fmt.Errorf("%d sync conflict(s) in %s:\n%s", len(conflicts), root, strings.Join(conflicts, "\n"))
}
