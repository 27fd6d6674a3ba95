// Package filestats lists files with their sizes and bins those listings
// into a size distribution.
package filestats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"goodmorning/internal/fileutil"
)

// Entry is one file in a listing.
type Entry struct {
	File string `json:"file"`
	Size int64  `json:"size"`
}

// List walks dir recursively in lexical order and returns every
// non-directory with its size. Paths are absolute.
func List(dir string) ([]Entry, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{File: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return entries, nil
}

// ListingPath is where WriteListing stores the listing for dir.
func ListingPath(dir string) string {
	return strings.TrimRight(dir, `/\`) + "-files-stats.json"
}

// WriteListing lists dir and writes the result next to it. It returns the
// output path and the number of files.
func WriteListing(dir string) (string, int, error) {
	entries, err := List(dir)
	if err != nil {
		return "", 0, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	out := ListingPath(dir)
	if err := fileutil.WriteJSON(out, entries); err != nil {
		return "", 0, err
	}
	return out, len(entries), nil
}

// ReadListing loads a listing written by WriteListing.
func ReadListing(path string) ([]Entry, error) {
	var entries []Entry
	if err := fileutil.ReadJSON(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// binCount is the number of bounded bins: 1KiB, 4KiB, ... 64MiB.
const binCount = 9

// BinLimits returns the inclusive upper bound of each bounded bin.
func BinLimits() []int64 {
	limits := make([]int64, binCount)
	limit := int64(1024)
	for i := range limits {
		limits[i] = limit
		limit *= 4
	}
	return limits
}

// Bin counts files up to Limit bytes. Limit is zero for the overflow bin.
type Bin struct {
	Label   string  `json:"label"`
	Limit   int64   `json:"limit"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution is a file size histogram. Bins are in ascending order with
// the "bigger" overflow bin last.
type Distribution struct {
	Bins  []Bin `json:"bins"`
	Total int   `json:"total"`
}

// Distribute places every entry in the first bin whose limit is at least its
// size, or in the overflow bin.
func Distribute(entries []Entry) Distribution {
	limits := BinLimits()
	dist := Distribution{Bins: make([]Bin, 0, len(limits)+1), Total: len(entries)}
	for _, limit := range limits {
		dist.Bins = append(dist.Bins, Bin{Label: strconv.FormatInt(limit, 10), Limit: limit})
	}
	dist.Bins = append(dist.Bins, Bin{Label: "bigger"})

	for _, entry := range entries {
		placed := false
		for i, limit := range limits {
			if entry.Size <= limit {
				dist.Bins[i].Count++
				placed = true
				break
			}
		}
		if !placed {
			dist.Bins[len(limits)].Count++
		}
	}
	if dist.Total > 0 {
		for i := range dist.Bins {
			dist.Bins[i].Percent = 100 * float64(dist.Bins[i].Count) / float64(dist.Total)
		}
	}
	return dist
}

// MarshalReport renders the distribution as {"fileCounts": ..., "percentages": ...},
// both objects keyed by bin label in bin order. Percentages are 0 when
// there are no files.
func (d Distribution) MarshalReport() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	if err := d.writeObject(&buf, "fileCounts", func(b Bin) string { return strconv.Itoa(b.Count) }); err != nil {
		return nil, err
	}
	buf.WriteString(",\n")
	if err := d.writeObject(&buf, "percentages", func(b Bin) string {
		return strconv.FormatFloat(b.Percent, 'f', -1, 64)
	}); err != nil {
		return nil, err
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func (d Distribution) writeObject(buf *bytes.Buffer, name string, value func(Bin) string) error {
	fmt.Fprintf(buf, "  %q: {\n", name)
	for i, bin := range d.Bins {
		key, err := json.Marshal(bin.Label)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "    %s: %s", key, value(bin))
		if i < len(d.Bins)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("  }")
	return nil
}

// DistributionPath is where WriteDistribution stores the histogram for a
// listing file.
func DistributionPath(listing string) string {
	return listing + "-size-distribution.json"
}

// WriteDistribution reads a listing, bins it, and writes the counts and
// percentages next to the listing.
func WriteDistribution(listing string) (string, Distribution, error) {
	entries, err := ReadListing(listing)
	if err != nil {
		return "", Distribution{}, err
	}
	dist := Distribute(entries)
	data, err := dist.MarshalReport()
	if err != nil {
		return "", Distribution{}, err
	}
	out := DistributionPath(listing)
	if err := fileutil.WriteAtomic(out, data); err != nil {
		return "", Distribution{}, err
	}
	return out, dist, nil
}
