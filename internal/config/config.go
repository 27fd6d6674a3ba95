package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	SyncDir  string `toml:"sync_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Tasks locates task profiles and the helpers they rely on.
type Tasks struct {
	Dir            string `toml:"dir"`
	DefaultProfile string `toml:"default_profile"`
	// SecretVar names the environment variable seeded from the optional
	// positional argument of `goodmorning run`.
	SecretVar  string `toml:"secret_var"`
	SudoHelper string `toml:"sudo_helper"`
}

// MomentGarden contains settings for the Moment Garden downloader.
type MomentGarden struct {
	BaseURL                 string `toml:"base_url"`
	GardensFile             string `toml:"gardens_file"`
	CommentsPath            string `toml:"comments_path"`
	UserAgent               string `toml:"user_agent"`
	PerPage                 int    `toml:"per_page"`
	RequestIntervalSeconds  int    `toml:"request_interval_seconds"`
	DownloadLimit           int    `toml:"download_limit"`
	DownloadIntervalSeconds int    `toml:"download_interval_seconds"`
	RequestTimeout          int    `toml:"request_timeout"`
}

// Dates points at the personal upcoming-dates file.
type Dates struct {
	File       string `toml:"file"`
	WindowDays int    `toml:"window_days"`
}

// Priorities points at the personal priorities file.
type Priorities struct {
	File string `toml:"file"`
}

// Quotes optionally replaces the built-in quote collections.
type Quotes struct {
	File string `toml:"file"`
}

// Shortcuts points at the Karabiner-Elements configuration.
type Shortcuts struct {
	KarabinerFile string `toml:"karabiner_file"`
}

// Audio contains playback settings.
type Audio struct {
	Volume     int      `toml:"volume"`
	Extensions []string `toml:"extensions"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	OnlyFailures   bool   `toml:"only_failures"`
	Downloads      bool   `toml:"downloads"`
}

// Binaries overrides the names of external tools.
type Binaries struct {
	FFprobe string `toml:"ffprobe"`
	FFplay  string `toml:"ffplay"`
	FFmpeg  string `toml:"ffmpeg"`
}

// Config encapsulates all configuration values for goodmorning.
//
// Machines maps a symbolic machine name to a hostname regular expression.
// Environment maps a variable name to per-machine values, with the "default"
// key used when no machine entry applies.
type Config struct {
	Paths         Paths                        `toml:"paths"`
	Logging       Logging                      `toml:"logging"`
	Machines      map[string]string            `toml:"machines"`
	Environment   map[string]map[string]string `toml:"environment"`
	Tasks         Tasks                        `toml:"tasks"`
	MomentGarden  MomentGarden                 `toml:"moment_garden"`
	Dates         Dates                        `toml:"dates"`
	Priorities    Priorities                   `toml:"priorities"`
	Quotes        Quotes                       `toml:"quotes"`
	Shortcuts     Shortcuts                    `toml:"shortcuts"`
	Audio         Audio                        `toml:"audio"`
	Notifications Notifications                `toml:"notifications"`
	Binaries      Binaries                     `toml:"binaries"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("goodmorning.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The sync
// directory is never created here; it belongs to the sync tool.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFile is the file the logger appends to and `goodmorning logs` reads.
func (c *Config) LogFile() string {
	return filepath.Join(c.Paths.LogDir, "goodmorning.log")
}

// ProfilePath returns the task file for the named profile.
func (c *Config) ProfilePath(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = c.Tasks.DefaultProfile
	}
	return filepath.Join(c.Tasks.Dir, profile+".toml")
}

// GardensPath returns the Moment Garden session file, relative paths being
// resolved against the sync directory.
func (c *Config) GardensPath() string {
	if filepath.IsAbs(c.MomentGarden.GardensFile) {
		return c.MomentGarden.GardensFile
	}
	return filepath.Join(c.Paths.SyncDir, c.MomentGarden.GardensFile)
}

// FFprobeBinary returns the ffprobe executable name used for tag inspection.
func (c *Config) FFprobeBinary() string {
	return binaryOrDefault(c.Binaries.FFprobe, "ffprobe")
}

// FFplayBinary returns the ffplay executable name used for playback.
func (c *Config) FFplayBinary() string {
	return binaryOrDefault(c.Binaries.FFplay, "ffplay")
}

// FFmpegBinary returns the ffmpeg executable name used for metadata rewrites.
func (c *Config) FFmpegBinary() string {
	return binaryOrDefault(c.Binaries.FFmpeg, "ffmpeg")
}

func binaryOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
