package testsupport

import (
	"context"
	"strings"
	"sync"

	"goodmorning/internal/shell"
)

// Response scripts the outcome of a command run through FakeRunner.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// FakeRunner is a shell.Runner that answers from a table of responses keyed
// by the rendered command line. A key ending in "*" matches by prefix.
// Unmatched commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []string
	started   []string
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]Response)}
}

// On queues resp for commands matching key. Multiple responses for the same
// key are consumed in order; the last one repeats.
func (f *FakeRunner) On(key string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = append(f.responses[key], resp)
	return f
}

// Run implements shell.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd shell.Command) (shell.Result, error) {
	line := cmd.String()

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.match(line)
	f.mu.Unlock()

	if !ok {
		return shell.Result{}, nil
	}
	result := shell.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, &shell.ExitError{Command: line, Code: resp.ExitCode, Stdout: resp.Stdout, Stderr: resp.Stderr}
	}
	return result, nil
}

// Start implements shell.Runner.
func (f *FakeRunner) Start(cmd shell.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, cmd.String())
	return nil
}

func (f *FakeRunner) match(line string) (Response, bool) {
	key := ""
	if _, ok := f.responses[line]; ok {
		key = line
	} else {
		for candidate := range f.responses {
			prefix, isPrefix := strings.CutSuffix(candidate, "*")
			if isPrefix && strings.HasPrefix(line, prefix) && len(prefix) > len(strings.TrimSuffix(key, "*")) {
				key = candidate
			}
		}
	}
	if key == "" {
		return Response{}, false
	}
	queue := f.responses[key]
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return resp, true
}

// Calls returns the command lines run so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Started returns the command lines launched with Start.
func (f *FakeRunner) Started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}
