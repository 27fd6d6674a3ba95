package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"goodmorning/internal/logging"
	"goodmorning/internal/machine"
	"goodmorning/internal/runstate"
	"goodmorning/internal/shell"
)

// ErrTimeout is returned by polling checks that give up.
var ErrTimeout = errors.New("timed out")

// Env is what a check can reach while it runs.
type Env struct {
	Runner     shell.Runner
	State      *runstate.State
	Logger     *slog.Logger
	Home       string
	SudoHelper string
	SecretVar  string
	// Sleep waits between polling attempts; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Func is a built-in check.
type Func func(ctx context.Context, env *Env, params Params) error

// Registry maps check names to implementations.
type Registry map[string]Func

// Builtin returns every check shipped with goodmorning.
func Builtin() Registry {
	return Registry{
		"uptime":          Uptime,
		"disk-space":      DiskSpace,
		"desktop-clutter": DesktopClutter,
		"brew-outdated":   BrewOutdated,
		"brew-cleanup":    BrewCleanup,
		"brew-doctor":     BrewDoctor,
		"wait-for-host":   WaitForHost,
		"xcode-path":      XcodePath,
		"keychain-secret": KeychainSecret,
		"line-limit":      LineLimit,
		"output":          Output,
		"note":            Note,
	}
}

// Names lists the registered check names.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run looks up and executes the named check.
func (r Registry) Run(ctx context.Context, name string, env *Env, params Params) error {
	fn, ok := r[name]
	if !ok {
		return fmt.Errorf("unknown check %q", name)
	}
	return fn(ctx, env, params)
}

func (e *Env) run(ctx context.Context, name string, args ...string) (shell.Result, error) {
	return e.Runner.Run(ctx, shell.Command{Name: name, Args: args, Env: machine.Environ(e.State.Vars())})
}

// sudo wraps args with the password helper when a secret is available so
// commands needing elevated rights do not block on a prompt.
func (e *Env) sudo(ctx context.Context, args ...string) (shell.Result, error) {
	if e.SudoHelper != "" && e.SecretVar != "" {
		if secret, ok := e.State.Var(e.SecretVar); ok && secret != "" {
			return e.run(ctx, e.SudoHelper, slices.Concat([]string{secret}, args)...)
		}
	}
	return e.run(ctx, args[0], args[1:]...)
}

func (e *Env) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Env) logger() *slog.Logger {
	return logging.NewComponentLogger(e.Logger, "checks")
}
