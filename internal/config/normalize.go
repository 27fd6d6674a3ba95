package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize(configDir string) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFiles(configDir); err != nil {
		return err
	}
	c.normalizeTasks()
	c.normalizeMomentGarden()
	c.normalizeAudio()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("GOODMORNING_SYNC_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SyncDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.StateDir, err = expandPath(orDefault(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(orDefault(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SyncDir, err = expandPath(orDefault(c.Paths.SyncDir, defaultSyncDir)); err != nil {
		return fmt.Errorf("paths.sync_dir: %w", err)
	}
	return nil
}

// normalizeFiles resolves personal data files. Relative paths are taken to
// live next to the config file.
func (c *Config) normalizeFiles(configDir string) error {
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"tasks.dir", &c.Tasks.Dir, defaultTasksDir},
		{"dates.file", &c.Dates.File, defaultDatesFile},
		{"priorities.file", &c.Priorities.File, defaultPrioritiesFile},
		{"quotes.file", &c.Quotes.File, ""},
		{"shortcuts.karabiner_file", &c.Shortcuts.KarabinerFile, defaultKarabinerFile},
	}
	for _, field := range fields {
		resolved, err := resolveRelative(configDir, orDefault(*field.value, field.def))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = resolved
	}
	return nil
}

func (c *Config) normalizeTasks() {
	c.Tasks.DefaultProfile = orDefault(c.Tasks.DefaultProfile, defaultProfile)
	c.Tasks.SecretVar = strings.TrimSpace(c.Tasks.SecretVar)
	c.Tasks.SudoHelper = orDefault(c.Tasks.SudoHelper, defaultSudoHelper)

	for name, pattern := range c.Machines {
		c.Machines[name] = strings.TrimSpace(pattern)
	}
}

func (c *Config) normalizeMomentGarden() {
	mg := &c.MomentGarden
	mg.BaseURL = strings.TrimRight(orDefault(mg.BaseURL, defaultMomentGardenBaseURL), "/")
	mg.GardensFile = orDefault(mg.GardensFile, defaultGardensFile)
	if strings.HasPrefix(mg.GardensFile, "~") {
		if expanded, err := expandPath(mg.GardensFile); err == nil {
			mg.GardensFile = expanded
		}
	}
	mg.CommentsPath = orDefault(mg.CommentsPath, defaultCommentsPath)
	mg.UserAgent = orDefault(mg.UserAgent, defaultUserAgent)
	if mg.PerPage <= 0 {
		mg.PerPage = defaultPerPage
	}
	if mg.RequestIntervalSeconds < 0 {
		mg.RequestIntervalSeconds = 0
	}
	if mg.DownloadIntervalSeconds < 0 {
		mg.DownloadIntervalSeconds = 0
	}
	if mg.RequestTimeout <= 0 {
		mg.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeAudio() {
	if c.Audio.Volume <= 0 {
		c.Audio.Volume = defaultAudioVolume
	}
	exts := make([]string, 0, len(c.Audio.Extensions))
	seen := make(map[string]struct{}, len(c.Audio.Extensions))
	for _, ext := range c.Audio.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultAudioExtensions...)
	}
	c.Audio.Extensions = exts
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func resolveRelative(base, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if strings.HasPrefix(value, "~") || filepath.IsAbs(value) || base == "" {
		return expandPath(value)
	}
	return expandPath(filepath.Join(base, value))
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
