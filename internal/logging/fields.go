package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTask is the standardized key for task names in a task tree.
	FieldTask = "task"
	// FieldProfile is the standardized key for the task profile being run.
	FieldProfile = "profile"
	// FieldRunID is the standardized key for run identifiers.
	FieldRunID = "run_id"
	// FieldGarden is the standardized key for Moment Garden garden names.
	FieldGarden = "garden"
	// FieldMomentID is the standardized key for Moment Garden item identifiers.
	FieldMomentID = "moment_id"
	// FieldEventType classifies a warning or error for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the reader of a warning.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
