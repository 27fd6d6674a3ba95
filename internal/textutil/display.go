package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const ellipsis = "…"

// Truncate shortens s to at most width runes, replacing the tail with an
// ellipsis when it does not fit.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + ellipsis
}

var titleCaser = cases.Title(language.English)

// Title converts dash or underscore separated identifiers such as
// "repo-update" into "Repo Update".
func Title(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	return titleCaser.String(s)
}
