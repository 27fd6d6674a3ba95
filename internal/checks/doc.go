// Package checks holds the built-in functions a task profile can call with
// type = "func". Each parses the output of a system tool and fails with a
// message saying what to do next.
package checks
