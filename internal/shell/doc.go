// Package shell runs the external tools goodmorning orchestrates.
//
// Output is captured rather than streamed so callers can parse it, and a
// non-zero exit becomes an *ExitError carrying both streams.
package shell
