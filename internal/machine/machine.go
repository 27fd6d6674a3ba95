package machine

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// InheritKeyword marks a task whose applicability comes from its parent.
const InheritKeyword = "inherit"

// ErrUnknownHost is returned when the hostname matches no configured machine.
var ErrUnknownHost = errors.New("hostname matches no configured machine")

// Map resolves hostnames to symbolic machine names.
type Map struct {
	names    []string
	patterns map[string]*regexp.Regexp
}

// NewMap compiles the name -> hostname regex table.
func NewMap(patterns map[string]string) (*Map, error) {
	m := &Map{patterns: make(map[string]*regexp.Regexp, len(patterns))}
	for name, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("machine %s: %w", name, err)
		}
		m.patterns[name] = re
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return m, nil
}

// Names lists every configured machine name in sorted order.
func (m *Map) Names() []string {
	return slices.Clone(m.names)
}

// Has reports whether name is a configured machine.
func (m *Map) Has(name string) bool {
	_, ok := m.patterns[name]
	return ok
}

// Resolve returns the machine names whose pattern matches hostname. A host
// may match several names.
func (m *Map) Resolve(hostname string) []string {
	var matched []string
	for _, name := range m.names {
		if m.patterns[name].MatchString(hostname) {
			matched = append(matched, name)
		}
	}
	return matched
}

// Spec is the machine applicability of a task: either inherit from the
// parent or an explicit list of machine names.
type Spec struct {
	Inherit bool
	Names   []string
}

// ParseSpec accepts the decoded TOML value of a task's machines field: the
// string "inherit" or an array of machine names.
func ParseSpec(value any) (Spec, error) {
	switch v := value.(type) {
	case nil:
		return Spec{}, errors.New("machines must be set")
	case string:
		if strings.TrimSpace(v) == InheritKeyword {
			return Spec{Inherit: true}, nil
		}
		return Spec{}, fmt.Errorf("machines: expected %q or a list of names, got %q", InheritKeyword, v)
	case []string:
		return namesSpec(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return Spec{}, fmt.Errorf("machines: expected string names, got %T", item)
			}
			names = append(names, s)
		}
		return namesSpec(names)
	default:
		return Spec{}, fmt.Errorf("machines: unsupported value of type %T", value)
	}
}

func namesSpec(names []string) (Spec, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == InheritKeyword {
			return Spec{}, fmt.Errorf("machines: %q cannot appear inside a list", InheritKeyword)
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return Spec{Names: out}, nil
}

// Effective resolves the spec against the parent's effective machine list.
func (s Spec) Effective(parent []string) []string {
	if s.Inherit {
		return parent
	}
	return s.Names
}

// String renders the spec the way it is written in task files.
func (s Spec) String() string {
	if s.Inherit {
		return InheritKeyword
	}
	return strings.Join(s.Names, ",")
}

// Applies reports whether any of the effective machines is one of the
// current host's machine names.
func Applies(effective, current []string) bool {
	for _, name := range effective {
		if slices.Contains(current, name) {
			return true
		}
	}
	return false
}

// Hostname returns the current hostname. GOODMORNING_HOSTNAME overrides it.
func Hostname() (string, error) {
	if override := strings.TrimSpace(os.Getenv("GOODMORNING_HOSTNAME")); override != "" {
		return override, nil
	}
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolve hostname: %w", err)
	}
	return host, nil
}
