// Package machine decides which configured machines the current host is.
//
// Task files name machines symbolically ("homeLaptop", "workVM"); the config
// maps each name to a hostname regex. A task either lists names or inherits
// its parent's list.
package machine
