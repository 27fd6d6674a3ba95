package momentgarden

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"goodmorning/internal/fileutil"
	"goodmorning/internal/logging"
)

// Cache is the on-disk mirror of one garden.
type Cache struct {
	Dir    string
	Logger *slog.Logger
}

// MetadataDir holds one <id>.json per listed moment.
func (c Cache) MetadataDir() string { return filepath.Join(c.Dir, "metadata") }

// CommentsDir holds one <id>.json per moment with comments.
func (c Cache) CommentsDir() string { return filepath.Join(c.MetadataDir(), "comments") }

// MediaDir returns image/ or video/ under the garden directory.
func (c Cache) MediaDir(kind string) string { return filepath.Join(c.Dir, kind) }

func (c Cache) metadataPath(id string) string {
	return filepath.Join(c.MetadataDir(), id+".json")
}

func (c Cache) commentsPath(id string) string {
	return filepath.Join(c.CommentsDir(), id+".json")
}

// StoreMoments writes every item that is not cached yet and returns the
// parsed moments of the page along with how many were new. Existing files
// are left alone.
func (c Cache) StoreMoments(items []json.RawMessage) ([]Moment, int, error) {
	if err := os.MkdirAll(c.MetadataDir(), 0o755); err != nil {
		return nil, 0, fmt.Errorf("create metadata dir: %w", err)
	}
	moments := make([]Moment, 0, len(items))
	added := 0
	for _, raw := range items {
		m, err := ParseMoment(raw)
		if err != nil {
			return nil, added, err
		}
		moments = append(moments, m)
		target := c.metadataPath(string(m.ID))
		cached, err := fileutil.Exists(target)
		if err != nil {
			return nil, added, err
		}
		if cached {
			continue
		}
		if err := fileutil.WriteAtomic(target, compact(raw)); err != nil {
			return nil, added, fmt.Errorf("cache moment %s: %w", m.ID, err)
		}
		added++
	}
	return moments, added, nil
}

// NeedsComments reports whether m has comments that are not cached yet.
func (c Cache) NeedsComments(m Moment) bool {
	if m.Comments() <= 0 {
		return false
	}
	cached, err := fileutil.Exists(c.commentsPath(string(m.ID)))
	return err != nil || !cached
}

// StoreComments writes the comment thread of a moment.
func (c Cache) StoreComments(id string, raw json.RawMessage) error {
	if err := os.MkdirAll(c.CommentsDir(), 0o755); err != nil {
		return fmt.Errorf("create comments dir: %w", err)
	}
	return fileutil.WriteAtomic(c.commentsPath(id), compact(raw))
}

// Moments reads every cached moment ordered by file name. Stray .DS_Store
// files are deleted on the way.
func (c Cache) Moments() ([]Moment, error) {
	entries, err := os.ReadDir(c.MetadataDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var moments []Moment
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(c.MetadataDir(), name)
		if name == ".DS_Store" {
			if err := os.Remove(full); err != nil {
				return nil, fmt.Errorf("remove %s: %w", full, err)
			}
			if c.Logger != nil {
				c.Logger.Info("removed stray file", logging.String("path", full))
			}
			continue
		}
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		m, err := ParseMoment(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file '%s' as JSON: %w", full, err)
		}
		moments = append(moments, m)
	}
	return moments, nil
}

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
