package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parents) holding exactly size bytes.
func WriteFile(t testing.TB, path string, size int64) string {
	t.Helper()
	if size < 0 {
		size = 0
	}
	return WriteContent(t, path, bytes.Repeat([]byte{'x'}, int(size)))
}

// WriteContent creates path (and its parents) holding data.
func WriteContent(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
