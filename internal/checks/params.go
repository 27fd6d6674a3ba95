package checks

import (
	"fmt"
	"time"
)

// Params holds the decoded [task.params] table of a func task.
type Params map[string]any

// String returns the string param key, or def when unset.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %s: expected string, got %T", key, v)
	}
	return s, nil
}

// Int returns the integer param key, or def when unset.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("param %s: expected integer, got %v", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("param %s: expected integer, got %T", key, v)
	}
}

// Bool returns the boolean param key, or def when unset.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("param %s: expected bool, got %T", key, v)
	}
	return b, nil
}

// Strings returns the string list param key, or def when unset.
func (p Params) Strings(key string, def []string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("param %s: expected strings, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %s: expected list of strings, got %T", key, v)
	}
}

// Duration parses a Go duration string param ("5s", "2m"), or returns def.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	s, err := p.String(key, "")
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return d, nil
}
