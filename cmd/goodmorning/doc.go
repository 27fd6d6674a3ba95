// Package main hosts the goodmorning CLI entrypoint and command graph.
//
// Each subcommand replaces one of the old morning scripts: running a task
// profile, mirroring Moment Garden, playing audio, printing personal notes,
// or analyzing stat files. The command context resolves configuration and
// logging once so subcommands only wire the internal packages together.
//
// New behavior belongs in the internal packages first; commands here stay
// thin.
package main
