// Package logs reads the goodmorning log file for the `logs` command.
//
// Last returns the final lines of the file with a ring buffer so memory stays
// bounded by the requested count. Since and Follow continue from a byte
// offset; a file that shrank below the offset (truncated or replaced) is read
// again from the start.
package logs
