package instrumentation

import (
	"fmt"
	"regexp"
	"sort"

	"goodmorning/internal/fileutil"
)

// patchNodes say little by themselves, so they are reported together with
// the name of their parent.
var patchNodes = map[string]bool{
	"applyPatches":  true,
	"applyPatch":    true,
	"derivePatches": true,
}

// SelfTimeStat aggregates nodes sharing a label. SelfTime is in seconds.
type SelfTimeStat struct {
	ID       string  `json:"id"`
	SelfTime float64 `json:"selftime"`
	Calls    int     `json:"calls"`
	Percent  float64 `json:"percent"`
}

// SelfTimeResult is the output of SelfTime.
type SelfTimeResult struct {
	// TotalSeconds is the sum of every node's self time.
	TotalSeconds float64
	Stats        []SelfTimeStat
}

// SelfTime aggregates self time by node label, sorted by descending time.
func SelfTime(report *Report) SelfTimeResult {
	parents := make(map[int]string)
	for _, node := range report.Nodes {
		for _, child := range node.Children {
			parents[child] = node.Label.Name
		}
	}

	byName := make(map[string]*SelfTimeStat)
	var order []string
	var total float64
	for _, node := range report.Nodes {
		name := node.Label.Name
		if patchNodes[name] {
			name = fmt.Sprintf("%s: %s", name, parents[node.ID])
		}
		var self float64
		if node.Stats != nil {
			self = node.Stats.Time.Self
		}
		stat, ok := byName[name]
		if !ok {
			stat = &SelfTimeStat{ID: name}
			byName[name] = stat
			order = append(order, name)
		}
		stat.SelfTime += self
		stat.Calls++
		total += self
	}

	stats := make([]SelfTimeStat, 0, len(order))
	for _, name := range order {
		stat := *byName[name]
		if total > 0 {
			stat.Percent = 100 * stat.SelfTime / total
		}
		stat.SelfTime /= nanosPerSecond
		stats = append(stats, stat)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].SelfTime > stats[j].SelfTime })
	return SelfTimeResult{TotalSeconds: total / nanosPerSecond, Stats: stats}
}

// CombinedStat is the total for one category. Time is in seconds.
type CombinedStat struct {
	ID      string  `json:"id"`
	Time    float64 `json:"time"`
	Calls   int     `json:"calls"`
	Percent float64 `json:"percent"`
}

type category struct {
	name    string
	pattern *regexp.Regexp
}

// Categories in match precedence order. templateCompiler is a babel plugin
// but is split out.
var categories = []category{
	{"babel", regexp.MustCompile(`(?i)babel`)},
	{"templateCompiler", regexp.MustCompile(`(?i)templatecompiler`)},
	{"eyeglass", regexp.MustCompile(`(?i)eyeglass`)},
	{"cleanup", regexp.MustCompile(`(?i)cleanup`)},
	{"command", regexp.MustCompile(`(?i)command`)},
	{"patch", regexp.MustCompile(`(?i)patch`)},
}

// categoryOrder is the order categories are listed in before sorting.
var categoryOrder = []string{"eyeglass", "babel", "templateCompiler", "cleanup", "command", "patch", "other"}

// Categorize returns the category a node label belongs to.
func Categorize(id string) string {
	for _, c := range categories {
		if c.pattern.MatchString(id) {
			return c.name
		}
	}
	return "other"
}

// Combine sums self-time stats into categories, sorted by descending time.
func Combine(stats []SelfTimeStat) []CombinedStat {
	combined := make([]CombinedStat, len(categoryOrder))
	index := make(map[string]int, len(categoryOrder))
	for i, name := range categoryOrder {
		combined[i] = CombinedStat{ID: name}
		index[name] = i
	}
	for _, stat := range stats {
		c := &combined[index[Categorize(stat.ID)]]
		c.Time += stat.SelfTime
		c.Calls += stat.Calls
		c.Percent += stat.Percent
	}
	sort.SliceStable(combined, func(i, j int) bool { return combined[i].Time > combined[j].Time })
	return combined
}

// SelfTimePath and CombinedPath name the outputs written for an
// instrumentation file.
func SelfTimePath(input string) string { return input + "-selftime.json" }

func CombinedPath(input string) string { return input + "-combined.json" }

// WriteSelfTime analyzes input and writes its self-time and combined files.
func WriteSelfTime(input string) (SelfTimeResult, error) {
	report, err := ReadReport(input)
	if err != nil {
		return SelfTimeResult{}, err
	}
	result := SelfTime(report)
	if err := fileutil.WriteJSON(SelfTimePath(input), result.Stats); err != nil {
		return SelfTimeResult{}, err
	}
	if err := fileutil.WriteJSON(CombinedPath(input), Combine(result.Stats)); err != nil {
		return SelfTimeResult{}, err
	}
	return result, nil
}
