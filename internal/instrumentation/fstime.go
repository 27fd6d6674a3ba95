package instrumentation

import (
	"sort"

	"goodmorning/internal/fileutil"
)

// FSStat is the total for one filesystem or disk-cache operation. Time is
// in seconds.
type FSStat struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Time  float64 `json:"time"`
}

// FSTime sums fs, async-disk-cache and sync-disk-cache stats across nodes,
// labelled "<block> - <operation>" and sorted by descending time. Names of
// nodes without stats are returned separately.
func FSTime(report *Report) (stats []FSStat, missing []string) {
	totals := make(map[string]*FSStat)
	collect := func(block string, ops map[string]OpStat) {
		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			label := block + " - " + name
			stat, ok := totals[label]
			if !ok {
				stat = &FSStat{Name: label}
				totals[label] = stat
			}
			stat.Count += ops[name].Count
			stat.Time += ops[name].Time
		}
	}
	for _, node := range report.Nodes {
		if node.Stats == nil {
			missing = append(missing, node.Label.Name)
			continue
		}
		collect("fs", node.Stats.FS)
		collect("async-disk-cache", node.Stats.AsyncDiskCache)
		collect("sync-disk-cache", node.Stats.SyncDiskCache)
	}

	stats = make([]FSStat, 0, len(totals))
	for _, stat := range totals {
		stat.Time /= nanosPerSecond
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Time != stats[j].Time {
			return stats[i].Time > stats[j].Time
		}
		return stats[i].Name < stats[j].Name
	})
	return stats, missing
}

// FSStatsPath names the output written for an instrumentation file.
func FSStatsPath(input string) string { return input + "-fs-stats.json" }

// WriteFSTime analyzes input and writes its fs-stats file.
func WriteFSTime(input string) ([]FSStat, []string, error) {
	report, err := ReadReport(input)
	if err != nil {
		return nil, nil, err
	}
	stats, missing := FSTime(report)
	if err := fileutil.WriteJSON(FSStatsPath(input), stats); err != nil {
		return nil, nil, err
	}
	return stats, missing, nil
}
