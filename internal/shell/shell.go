package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes a single external process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin io.Reader
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			parts = append(parts, fmt.Sprintf("%q", arg))
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes commands. Implementations must be safe for sequential reuse.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	// Start launches a process without waiting for it.
	Start(cmd Command) error
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stdout  string
	Stderr  string
}

func (e *ExitError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.Code, detail)
}

// ExitCode returns the exit code carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// ExecRunner runs commands with os/exec. Env entries are appended to the
// current process environment for every command.
type ExecRunner struct {
	Env []string
}

// Run executes cmd and waits for it to finish.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return Result{}, errors.New("run command: empty command name")
	}
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Env = r.environ(cmd.Env)
	proc.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", cmd, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{
			Command: cmd.String(),
			Code:    result.ExitCode,
			Stdout:  result.Stdout,
			Stderr:  result.Stderr,
		}
	}
	return result, fmt.Errorf("%s: %w", cmd, err)
}

// Start launches cmd detached from the caller and releases it.
func (r ExecRunner) Start(cmd Command) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return errors.New("start command: empty command name")
	}
	proc := exec.Command(cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Env = r.environ(cmd.Env)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd, err)
	}
	return proc.Process.Release()
}

func (r ExecRunner) environ(extra []string) []string {
	if len(r.Env) == 0 && len(extra) == 0 {
		return nil
	}
	env := os.Environ()
	env = append(env, r.Env...)
	return append(env, extra...)
}

// Lines splits output into trimmed, non-empty lines.
func Lines(output string) []string {
	raw := strings.Split(output, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
