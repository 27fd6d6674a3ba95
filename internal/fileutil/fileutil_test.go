package fileutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected source mode to carry over, got %o", info.Mode().Perm())
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.flac")
	dst := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceFile(src, dst); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("expected replaced content, got %q", got)
	}
	if ok, _ := Exists(src); ok {
		t.Fatal("expected source to be gone")
	}
}

func TestHasContent(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if HasContent(empty) || !HasContent(full) || HasContent(filepath.Join(dir, "missing")) || HasContent(dir) {
		t.Fatal("unexpected HasContent results")
	}
}

func TestWriteAndReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := WriteJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected JSON layout %q", data)
	}
	var got map[string]int
	if err := ReadJSON(path, &got); err != nil || got["a"] != 1 {
		t.Fatalf("ReadJSON: %v %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestForEachStopsOnError(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	err := ForEach(context.Background(), []string{"a", "b", "c"}, 1, func(_ context.Context, input string) error {
		calls.Add(1)
		if input == "b" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected at least two calls, got %d", calls.Load())
	}
}

func TestReadDocumentByExtension(t *testing.T) {
	type entry struct {
		Name string `toml:"name" yaml:"name"`
	}
	type doc struct {
		Entries []entry `toml:"entry" yaml:"entry"`
	}
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "a.toml")
	yamlPath := filepath.Join(dir, "a.yml")
	if err := os.WriteFile(tomlPath, []byte("[[entry]]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("entry:\n  - name: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fromTOML, fromYAML doc
	if err := ReadDocument(tomlPath, &fromTOML); err != nil {
		t.Fatalf("toml: %v", err)
	}
	if err := ReadDocument(yamlPath, &fromYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(fromTOML.Entries) != 1 || fromTOML.Entries[0].Name != "x" {
		t.Fatalf("unexpected toml decode: %+v", fromTOML)
	}
	if len(fromYAML.Entries) != 1 || fromYAML.Entries[0].Name != "y" {
		t.Fatalf("unexpected yaml decode: %+v", fromYAML)
	}

	badPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badPath, []byte("entry:\n  - nmae: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ReadDocument(badPath, &fromYAML); err == nil {
		t.Fatal("expected unknown field error")
	}
}
