// Package history persists the outcome of task profile runs and Moment
// Garden syncs in a SQLite database under the state directory.
//
// Each run is a row in runs keyed by a random UUID; task runs also store
// one task_results row per task in walk order. The schema is created and
// upgraded from the embedded migrations on Open.
package history
