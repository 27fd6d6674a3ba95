// Package instrumentation summarizes Broccoli build instrumentation files
// (instrumentation.*.json written with BROCCOLI_VIZ=1): self time per node,
// time per category, filesystem and disk-cache time, and differences
// between two builds.
package instrumentation

import (
	"encoding/json"
	"fmt"
	"os"
)

// nanosPerSecond converts instrumentation times, recorded in nanoseconds.
const nanosPerSecond = 1e9

// Report is the subset of an instrumentation file this package reads.
type Report struct {
	Nodes []Node `json:"nodes"`
}

// Node is one node of the build graph.
type Node struct {
	ID       int        `json:"id"`
	Label    NodeLabel  `json:"label"`
	Children []int      `json:"children"`
	Stats    *NodeStats `json:"stats"`
}

// NodeLabel names a node.
type NodeLabel struct {
	Name string `json:"name"`
}

// NodeStats holds the timing blocks of a node.
type NodeStats struct {
	Time           TimeStat          `json:"time"`
	FS             map[string]OpStat `json:"fs"`
	AsyncDiskCache map[string]OpStat `json:"async-disk-cache"`
	SyncDiskCache  map[string]OpStat `json:"sync-disk-cache"`
}

// TimeStat is the self time of a node in nanoseconds.
type TimeStat struct {
	Self float64 `json:"self"`
}

// OpStat counts calls of one operation and their total time in nanoseconds.
type OpStat struct {
	Count int64   `json:"count"`
	Time  float64 `json:"time"`
}

// ReadReport loads an instrumentation file.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instrumentation: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse instrumentation %s: %w", path, err)
	}
	return &report, nil
}
