package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"goodmorning/internal/checks"
	"goodmorning/internal/logging"
	"goodmorning/internal/machine"
	"goodmorning/internal/runstate"
	"goodmorning/internal/shell"
)

// ErrTasksFailed is returned by Run when at least one task failed.
var ErrTasksFailed = errors.New("tasks failed")

// Status is the outcome of a single task.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records one task outcome. Path joins the names of the task and its
// ancestors with " / ".
type Result struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Kind     Kind          `json:"kind"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Depth    int           `json:"depth"`
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID       string        `json:"run_id,omitempty"`
	Profile     string        `json:"profile"`
	Host        string        `json:"host"`
	Machines    []string      `json:"machines"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	Results     []Result      `json:"results"`
	FinalOutput []string      `json:"final_output,omitempty"`
}

// Counts tallies outcomes. Groups that ran are not counted; their children are.
func (s *Summary) Counts() (succeeded, failed, skipped int) {
	for _, r := range s.Results {
		if r.Kind == KindGroup && r.Status != StatusSkipped {
			continue
		}
		switch r.Status {
		case StatusOK:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Failures returns the failed non-group results.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == StatusFailed && r.Kind != KindGroup {
			out = append(out, r)
		}
	}
	return out
}

// Options configures a Runner.
type Options struct {
	Runner     shell.Runner
	Checks     checks.Registry
	Logger     *slog.Logger
	State      *runstate.State
	RunID      string
	Host       string
	Machines   []string
	SyncDir    string
	Home       string
	SudoHelper string
	SecretVar  string
	// Sleep is handed to checks that poll.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnResult, when set, is called as each task finishes.
	OnResult func(Result)
}

// Runner walks profiles sequentially.
type Runner struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	brewList  map[string]bool
	voltaList map[string]string
}

// NewRunner constructs a Runner. Missing collaborators get defaults.
func NewRunner(opts Options) *Runner {
	if opts.Runner == nil {
		opts.Runner = shell.ExecRunner{}
	}
	if opts.Checks == nil {
		opts.Checks = checks.Builtin()
	}
	if opts.State == nil {
		opts.State = runstate.New(nil)
	}
	return &Runner{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "tasks"),
	}
}

// Run executes profile. The Summary is returned even when tasks fail; the
// error then wraps ErrTasksFailed. Cancellation stops the walk and returns
// the context error.
func (r *Runner) Run(ctx context.Context, profile *Profile) (*Summary, error) {
	summary := &Summary{
		RunID:    r.opts.RunID,
		Profile:  profile.Name,
		Host:     r.opts.Host,
		Machines: append([]string(nil), r.opts.Machines...),
		Started:  time.Now(),
	}
	r.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String(logging.FieldRunID, r.opts.RunID),
		logging.String(logging.FieldProfile, profile.Name),
		logging.String("host", r.opts.Host),
		logging.String("machines", strings.Join(r.opts.Machines, ",")),
	)

	r.walk(ctx, profile.Tasks, "", nil, 0, summary)

	summary.Duration = time.Since(summary.Started)
	summary.FinalOutput = r.opts.State.Output()

	succeeded, failed, skipped := summary.Counts()
	r.logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String(logging.FieldProfile, profile.Name),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Int("skipped", skipped),
		logging.Duration("duration", summary.Duration),
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if failed > 0 {
		return summary, fmt.Errorf("%d task(s) failed: %w", failed, ErrTasksFailed)
	}
	return summary, nil
}

// walk runs tasks and reports whether any of them failed.
func (r *Runner) walk(ctx context.Context, tasks []Task, parentPath string, parentMachines []string, depth int, summary *Summary) bool {
	anyFailed := false
	for i := range tasks {
		if ctx.Err() != nil {
			return anyFailed
		}
		task := &tasks[i]
		path := joinPath(parentPath, task.DisplayName())
		effective := task.spec.Effective(parentMachines)
		result := Result{Path: path, Name: task.DisplayName(), Kind: task.Type, Depth: depth}

		if !machine.Applies(effective, r.opts.Machines) {
			result.Status = StatusSkipped
			r.record(summary, -1, result)
			continue
		}

		start := time.Now()
		if task.Type == KindGroup {
			index := r.record(summary, -1, result)
			childFailed := r.walk(ctx, task.Tasks, path, effective, depth+1, summary)
			result.Duration = time.Since(start)
			result.Status = StatusOK
			if childFailed {
				result.Status = StatusFailed
				result.Error = "subtask failed"
				anyFailed = true
			}
			r.record(summary, index, result)
			continue
		}

		err := r.execute(ctx, task, effective)
		result.Duration = time.Since(start)
		if err != nil {
			anyFailed = true
			result.Status = StatusFailed
			result.Error = r.opts.State.Redact(err.Error())
			r.logger.Warn("task failed",
				logging.String(logging.FieldEventType, "task_failed"),
				logging.String(logging.FieldTask, path),
				logging.String("kind", string(task.Type)),
				logging.String(logging.FieldErrorHint, "see the task error for the command that failed"),
				logging.String("error", result.Error),
			)
		} else {
			result.Status = StatusOK
			r.logger.Debug("task completed",
				logging.String(logging.FieldTask, path),
				logging.Duration("duration", result.Duration),
			)
		}
		r.record(summary, -1, result)
	}
	return anyFailed
}

// record appends result, or replaces the one at index, and returns its index.
func (r *Runner) record(summary *Summary, index int, result Result) int {
	if index < 0 {
		summary.Results = append(summary.Results, result)
		index = len(summary.Results) - 1
		if result.Kind == KindGroup && result.Status == "" {
			return index
		}
	} else {
		summary.Results[index] = result
	}
	if r.opts.OnResult != nil {
		r.opts.OnResult(result)
	}
	return index
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + " / " + name
}
