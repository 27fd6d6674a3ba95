// Package logging assembles structured slog loggers for goodmorning.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// attribute helpers that keep warnings shaped as cause, impact and next step.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
