package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes name safe to use as a single path element on macOS
// and Linux. Separators, colons and asterisks become dashes; quotes, angle
// brackets, pipes, question marks and control characters are dropped.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|' || unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}

// SanitizeToken lowercases value and keeps only ASCII letters, digits, dashes
// and underscores, replacing everything else with an underscore. It is used
// for lock and state file names. An empty result becomes "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
