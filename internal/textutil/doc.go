// Package textutil provides small text helpers shared by the command output
// and the downloaders: display truncation, title casing and filename
// sanitization.
package textutil
