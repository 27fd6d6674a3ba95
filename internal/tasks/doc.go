// Package tasks loads task profiles and walks them on the current machine.
//
// A profile is a tree of tasks. Each task names the machines it applies to,
// either explicitly or by inheriting its parent's list, and one of a fixed
// set of kinds (kill-proc, homebrew, exec, group, func, ...). The Runner
// executes applicable tasks in order, records skipped ones, keeps going after
// failures, and returns a Summary of every outcome.
package tasks
