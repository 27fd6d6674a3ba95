package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"goodmorning/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "dates.toml")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.toml")

	cases := []struct {
		name     string
		path     string
		required bool
		passed   bool
		skipped  bool
	}{
		{name: "present", path: present, passed: true},
		{name: "unset optional", path: "", skipped: true},
		{name: "unset required", path: "", required: true},
		{name: "missing optional", path: missing, skipped: true},
		{name: "missing required", path: missing, required: true},
		{name: "directory", path: dir},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckFile("file", tc.path, tc.required)
			if got.Passed != tc.passed || got.Skipped != tc.skipped {
				t.Fatalf("CheckFile(%q, %v) = %+v", tc.path, tc.required, got)
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil results for nil config, got %v", results)
	}
}

func TestRunAll_ReportsFailures(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SyncDir = base
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Tasks.Dir = filepath.Join(base, "tasks")
	cfg.MomentGarden.GardensFile = "gardens.toml"
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Tasks.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(cfg.ProfilePath(""), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	results := RunAll(&cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Gardens file" {
		t.Fatalf("expected only the gardens file to fail, got %+v", failed)
	}
}
