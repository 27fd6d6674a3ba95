package history

import (
	"goodmorning/internal/momentgarden"
	"goodmorning/internal/tasks"
)

// FromSummary converts a task run for storage. runErr is the error Run
// returned, if any.
func FromSummary(summary *tasks.Summary, runErr error) (Run, []TaskResult) {
	succeeded, failed, skipped := summary.Counts()
	run := Run{
		ID:        summary.RunID,
		Kind:      KindProfile,
		Name:      summary.Profile,
		Host:      summary.Host,
		StartedAt: summary.Started,
		Duration:  summary.Duration,
		Succeeded: succeeded,
		Failed:    failed,
		Skipped:   skipped,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	results := make([]TaskResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		results = append(results, TaskResult{
			Path:     r.Path,
			Kind:     string(r.Kind),
			Status:   string(r.Status),
			Error:    r.Error,
			Duration: r.Duration,
			Depth:    r.Depth,
		})
	}
	return run, results
}

// FromGardenReports converts a Moment Garden sync for storage. Each garden
// counts as succeeded or failed; downloaded files are not itemized.
func FromGardenReports(reports []momentgarden.GardenReport, runErr error) (Run, []TaskResult) {
	run := Run{Kind: KindMoments, Name: "moment-garden"}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	results := make([]TaskResult, 0, len(reports))
	for _, r := range reports {
		status := string(tasks.StatusOK)
		errText := r.Err
		if errText == "" && len(r.Downloads.Errors) > 0 {
			errText = r.Downloads.Errors[0]
		}
		if errText != "" {
			status = string(tasks.StatusFailed)
			run.Failed++
		} else {
			run.Succeeded++
		}
		results = append(results, TaskResult{
			Path:   r.Garden,
			Kind:   "garden",
			Status: status,
			Error:  errText,
		})
	}
	return run, results
}
