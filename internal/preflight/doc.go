// Package preflight provides readiness checks for the directories and
// personal files goodmorning depends on.
//
// The "goodmorning doctor" command prints every result. "goodmorning run"
// and "goodmorning moments" only consult the checks relevant to them and
// stop early when one fails, before any task or request is issued.
//
// Optional files that are not configured are reported as skipped rather
// than failed.
package preflight
