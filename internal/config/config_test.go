package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goodmorning/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GOODMORNING_SYNC_DIR", "")
	t.Setenv("NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "goodmorning")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.SyncDir != tempHome {
		t.Fatalf("unexpected sync dir: %q", cfg.Paths.SyncDir)
	}
	wantTasks := filepath.Join(tempHome, ".config", "goodmorning", "tasks")
	if cfg.Tasks.Dir != wantTasks {
		t.Fatalf("unexpected tasks dir: got %q want %q", cfg.Tasks.Dir, wantTasks)
	}
	if got := cfg.ProfilePath(""); got != filepath.Join(wantTasks, "morning.toml") {
		t.Fatalf("unexpected default profile path: %q", got)
	}
	if cfg.MomentGarden.PerPage != 50 || cfg.MomentGarden.DownloadLimit != 20 {
		t.Fatalf("unexpected moment garden defaults: %+v", cfg.MomentGarden)
	}
	if got := cfg.GardensPath(); got != filepath.Join(tempHome, ".mg-config.toml") {
		t.Fatalf("unexpected gardens path: %q", got)
	}
	if cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.FFprobeBinary())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "goodmorning.toml")
	content := `
[paths]
sync_dir = "/srv/sync"

[machines]
laptop = "(?i)macbook"
vm = "^dev-vm"

[environment.BASE_SYNC_DIR]
laptop = "~/Sync"
default = "/usr/local/SyncThing"

[dates]
file = "personal/dates.toml"

[binaries]
ffplay = "/opt/bin/ffplay"

[audio]
extensions = ["FLAC", ".mp3", "flac"]
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.SyncDir != "/srv/sync" {
		t.Fatalf("unexpected sync dir: %q", cfg.Paths.SyncDir)
	}
	if cfg.Dates.File != filepath.Join(tempDir, "personal", "dates.toml") {
		t.Fatalf("expected dates file relative to config, got %q", cfg.Dates.File)
	}
	if cfg.FFplayBinary() != "/opt/bin/ffplay" {
		t.Fatalf("unexpected ffplay binary: %q", cfg.FFplayBinary())
	}
	if got := strings.Join(cfg.Audio.Extensions, ","); got != ".flac,.mp3" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Environment["BASE_SYNC_DIR"]["laptop"] != "~/Sync" {
		t.Fatalf("unexpected environment: %+v", cfg.Environment)
	}
}

func TestSyncDirEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := t.TempDir()
	t.Setenv("GOODMORNING_SYNC_DIR", override)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.SyncDir != override {
		t.Fatalf("expected sync dir from env, got %q", cfg.Paths.SyncDir)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "bad machine regex",
			mutate: func(c *config.Config) { c.Machines = map[string]string{"laptop": "("} },
			want:   "machines.laptop",
		},
		{
			name:   "reserved machine name",
			mutate: func(c *config.Config) { c.Machines = map[string]string{"inherit": "x"} },
			want:   "reserved",
		},
		{
			name: "environment references unknown machine",
			mutate: func(c *config.Config) {
				c.Environment = map[string]map[string]string{"X": {"ghost": "1"}}
			},
			want: "unknown machine",
		},
		{
			name:   "comments path without placeholder",
			mutate: func(c *config.Config) { c.MomentGarden.CommentsPath = "/comments" },
			want:   "comments_path",
		},
		{
			name:   "relative base url",
			mutate: func(c *config.Config) { c.MomentGarden.BaseURL = "momentgarden.com" },
			want:   "base_url",
		},
		{
			name:   "unknown log level",
			mutate: func(c *config.Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if _, ok := cfg.Machines["homeLaptop"]; !ok {
		t.Fatalf("expected sample machines, got %+v", cfg.Machines)
	}
}
