package instrumentation

import (
	"path/filepath"
	"sort"
	"strings"

	"goodmorning/internal/fileutil"
)

// Rewrite maps a directory that differs between the two builds. Node IDs
// often embed absolute paths, so Before in the first build corresponds to
// After in the second, and both are reported as Placeholder.
type Rewrite struct {
	Placeholder string
	Before      string
	After       string
}

// Placeholders for the common rewrites.
const (
	BuildDirPlaceholder    = "<build-dir>"
	BroccoliDirPlaceholder = "<broccoli-dir>"
)

// SelfTimeDelta is the change of one node between builds. Times are in
// seconds.
type SelfTimeDelta struct {
	ID               string  `json:"id"`
	SelfTime         float64 `json:"selftime"`
	Calls            int     `json:"calls"`
	Percent          float64 `json:"percent"`
	OriginalSelfTime float64 `json:"originalSelfTime"`
	NewSelfTime      float64 `json:"newSelfTime"`
}

// DiffResult holds the four diff outputs.
type DiffResult struct {
	Combined []CombinedStat
	Changed  []SelfTimeDelta
	Gone     []SelfTimeStat
	Added    []SelfTimeStat
}

func rewrite(id string, rewrites []Rewrite, from, to func(Rewrite) string) string {
	for _, rw := range rewrites {
		if f := from(rw); f != "" {
			id = strings.Replace(id, f, to(rw), 1)
		}
	}
	return id
}

func before(rw Rewrite) string      { return rw.Before }
func after(rw Rewrite) string       { return rw.After }
func placeholder(rw Rewrite) string { return rw.Placeholder }

// Diff compares the combined and self-time stats of two builds. Categories
// missing from one side count as zero. Self-time outputs are sorted by
// descending self time.
func Diff(combinedBefore, combinedAfter []CombinedStat, selfBefore, selfAfter []SelfTimeStat, rewrites []Rewrite) DiffResult {
	var result DiffResult

	afterCombined := make(map[string]CombinedStat, len(combinedAfter))
	for _, stat := range combinedAfter {
		afterCombined[stat.ID] = stat
	}
	for _, b := range combinedBefore {
		a := afterCombined[b.ID]
		result.Combined = append(result.Combined, CombinedStat{
			ID:      b.ID,
			Time:    a.Time - b.Time,
			Calls:   a.Calls - b.Calls,
			Percent: a.Percent - b.Percent,
		})
	}

	beforeByID := make(map[string]SelfTimeStat, len(selfBefore))
	for _, stat := range selfBefore {
		beforeByID[stat.ID] = stat
	}
	afterByID := make(map[string]SelfTimeStat, len(selfAfter))
	for _, stat := range selfAfter {
		afterByID[stat.ID] = stat
	}

	for _, b := range selfBefore {
		normalized := rewrite(b.ID, rewrites, before, placeholder)
		a, ok := afterByID[rewrite(b.ID, rewrites, before, after)]
		if !ok {
			gone := b
			gone.ID = normalized
			result.Gone = append(result.Gone, gone)
			continue
		}
		result.Changed = append(result.Changed, SelfTimeDelta{
			ID:               normalized,
			SelfTime:         a.SelfTime - b.SelfTime,
			Calls:            a.Calls - b.Calls,
			Percent:          a.Percent - b.Percent,
			OriginalSelfTime: b.SelfTime,
			NewSelfTime:      a.SelfTime,
		})
	}
	for _, a := range selfAfter {
		if _, ok := beforeByID[rewrite(a.ID, rewrites, after, before)]; ok {
			continue
		}
		added := a
		added.ID = rewrite(a.ID, rewrites, after, placeholder)
		result.Added = append(result.Added, added)
	}

	sort.SliceStable(result.Changed, func(i, j int) bool { return result.Changed[i].SelfTime > result.Changed[j].SelfTime })
	sortSelfTime(result.Gone)
	sortSelfTime(result.Added)
	return result
}

func sortSelfTime(stats []SelfTimeStat) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].SelfTime > stats[j].SelfTime })
}

// DiffFiles compares the outputs of WriteSelfTime for two instrumentation
// files and writes combined-diff.json, selftime-diff.json,
// selftime-gone.json and selftime-added.json into outDir.
func DiffFiles(beforeInput, afterInput, outDir string, rewrites []Rewrite) (DiffResult, error) {
	var combinedBefore, combinedAfter []CombinedStat
	var selfBefore, selfAfter []SelfTimeStat
	reads := []struct {
		path string
		dst  any
	}{
		{CombinedPath(beforeInput), &combinedBefore},
		{CombinedPath(afterInput), &combinedAfter},
		{SelfTimePath(beforeInput), &selfBefore},
		{SelfTimePath(afterInput), &selfAfter},
	}
	for _, r := range reads {
		if err := fileutil.ReadJSON(r.path, r.dst); err != nil {
			return DiffResult{}, err
		}
	}

	result := Diff(combinedBefore, combinedAfter, selfBefore, selfAfter, rewrites)
	outputs := []struct {
		name string
		v    any
	}{
		{"combined-diff.json", nonNil(result.Combined)},
		{"selftime-diff.json", nonNil(result.Changed)},
		{"selftime-gone.json", nonNil(result.Gone)},
		{"selftime-added.json", nonNil(result.Added)},
	}
	for _, out := range outputs {
		if err := fileutil.WriteJSON(filepath.Join(outDir, out.name), out.v); err != nil {
			return DiffResult{}, err
		}
	}
	return result, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
