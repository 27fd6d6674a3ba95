// Package filenames lints the names of files in a directory, typically a
// folder of freshly downloaded music waiting to be tagged and filed.
package filenames

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Check flags file names matching a rule. Label is reported as
// "<count> <label>".
type Check struct {
	Label string
	Match func(name string) bool
}

// Regex builds a check from a regular expression.
func Regex(label, pattern string) Check {
	re := regexp.MustCompile(pattern)
	return Check{Label: label, Match: re.MatchString}
}

// Substring builds a check matching names containing s.
func Substring(label, s string) Check {
	return Check{Label: label, Match: func(name string) bool { return strings.Contains(name, s) }}
}

// Predicate builds a check from an arbitrary function.
func Predicate(label string, fn func(name string) bool) Check {
	return Check{Label: label, Match: fn}
}

var (
	lowercaseWord = regexp.MustCompile(` (Of|A|And|To|The|For|Or|In|On|Out|Up) `)
	allCapsWord   = regexp.MustCompile(`^[A-Z]{2,}$`)
)

// DefaultChecks returns the rules applied by the file-name-check task.
func DefaultChecks() []Check {
	return []Check{
		Regex("official audio/video", `(?i)official.*(video|audio)`),
		Regex("(rename)", `(?i)rename`),
		Regex("remix", `(?i)remix`),
		Regex("lyric", `(?i)lyric`),
		Regex("(audio)", `(?i)\(audio\)`),
		Regex("visualizer", `(?i)visuali[sz]er`),
		Regex("hq", `(?i)hq`),
		// prepositions, articles and conjunctions stay lowercase in titles
		Predicate("Of/A/And/To/The/For/Or/In/On/Out/Up", func(name string) bool {
			for _, part := range strings.Split(name, "-") {
				part = strings.TrimSpace(part)
				if lowercaseWord.MatchString(part) && !strings.Contains(part, "The A") {
					return true
				}
			}
			return false
		}),
		Predicate("all caps", func(name string) bool {
			for _, word := range strings.Split(name, " ") {
				if allCapsWord.MatchString(word) && !strings.Contains(word, "II") {
					return true
				}
			}
			return false
		}),
		Predicate("no dashes", func(name string) bool { return !strings.Contains(name, " - ") }),
		Regex("best quality", `(?i)best quality`),
		Substring("extra spaces", "  "),
		Predicate("start/end with quote mark", func(name string) bool {
			for _, part := range strings.Split(name, "-") {
				part = strings.TrimSpace(part)
				if strings.HasPrefix(part, "'") || strings.HasSuffix(part, "'") {
					return true
				}
			}
			return false
		}),
	}
}

// Report lists the offending files and one message per failed check, in
// check order.
type Report struct {
	Files    []string
	Messages []string
}

// OK reports whether every name passed.
func (r Report) OK() bool {
	return len(r.Messages) == 0
}

func (r Report) String() string {
	if r.OK() {
		return "all file names ok"
	}
	return strings.Join([]string{
		"Some file names had issues",
		strings.Join(r.Files, "\n"),
		"Error(s): " + strings.Join(r.Messages, ", "),
	}, "\n")
}

// Evaluate applies checks to names.
func Evaluate(names []string, checks []Check) Report {
	failed := make(map[string]struct{})
	var report Report
	for _, check := range checks {
		count := 0
		for _, name := range names {
			if check.Match(name) {
				count++
				failed[name] = struct{}{}
			}
		}
		if count > 0 {
			report.Messages = append(report.Messages, fmt.Sprintf("%d %s", count, check.Label))
		}
	}
	for name := range failed {
		report.Files = append(report.Files, name)
	}
	sort.Strings(report.Files)
	return report
}

// Scan evaluates the regular files directly inside dir, ignoring .DS_Store.
func Scan(dir string, checks []Check) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ".DS_Store" {
			continue
		}
		names = append(names, entry.Name())
	}
	return Evaluate(names, checks), nil
}
