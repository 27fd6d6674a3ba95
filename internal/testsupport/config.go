package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"goodmorning/internal/config"
)

// NewConfig returns the default config rooted in a fresh temp directory,
// with request pacing disabled. The sync and tasks directories exist.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SyncDir = filepath.Join(base, "sync")
	cfg.Tasks.Dir = filepath.Join(base, "tasks")
	cfg.Dates.File = filepath.Join(base, "dates.toml")
	cfg.Priorities.File = filepath.Join(base, "priorities.toml")
	cfg.Shortcuts.KarabinerFile = filepath.Join(base, "karabiner.json")
	cfg.MomentGarden.RequestIntervalSeconds = 0
	cfg.MomentGarden.DownloadIntervalSeconds = 0

	for _, dir := range []string{cfg.Paths.SyncDir, cfg.Tasks.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return &cfg
}
