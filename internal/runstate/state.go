// Package runstate carries the mutable state shared by the tasks of one run:
// exported variables (including secrets), flags raised by checks, and the
// lines printed once every task has finished.
package runstate

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

const redacted = "****"

// State is safe for concurrent use.
type State struct {
	mu      sync.Mutex
	vars    map[string]string
	secrets map[string]struct{}
	flags   map[string]bool
	output  []string
}

// New returns a State seeded with vars.
func New(vars map[string]string) *State {
	s := &State{
		vars:    make(map[string]string, len(vars)),
		secrets: make(map[string]struct{}),
		flags:   make(map[string]bool),
	}
	maps.Copy(s.vars, vars)
	return s
}

// Var returns the value of an exported variable.
func (s *State) Var(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[key]
	return v, ok
}

// SetVar exports a variable to subsequent task commands.
func (s *State) SetVar(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = value
}

// SetSecret exports a variable whose value is masked by Redact.
func (s *State) SetSecret(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = value
	s.secrets[key] = struct{}{}
}

// Vars returns a copy of every exported variable.
func (s *State) Vars() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.vars)
}

// SetFlag raises a named flag.
func (s *State) SetFlag(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = true
}

// Flag reports whether a named flag was raised.
func (s *State) Flag(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[name]
}

// Flags lists raised flags in sorted order.
func (s *State) Flags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.flags))
}

// AppendOutput queues lines for display after the run.
func (s *State) AppendOutput(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, lines...)
}

// Output returns the queued final output.
func (s *State) Output() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.output)
}

// Redact masks every secret value occurring in text.
func (s *State) Redact(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.secrets {
		if value := s.vars[key]; value != "" {
			text = strings.ReplaceAll(text, value, redacted)
		}
	}
	return text
}
