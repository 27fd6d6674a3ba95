package config

const (
	defaultConfigPath          = "~/.config/goodmorning/config.toml"
	defaultStateDir            = "~/.local/share/goodmorning"
	defaultLogDir              = "~/.local/share/goodmorning/logs"
	defaultSyncDir             = "~"
	defaultTasksDir            = "tasks"
	defaultProfile             = "morning"
	defaultSecretVar           = "LDAP_PASS"
	defaultSudoHelper          = "send-passwd-for-sudo"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMomentGardenBaseURL = "https://momentgarden.com"
	defaultGardensFile         = ".mg-config.toml"
	defaultCommentsPath        = "/comments/list/%s"
	defaultUserAgent           = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/115.0"
	defaultPerPage             = 50
	defaultRequestInterval     = 5
	defaultDownloadLimit       = 20
	defaultDownloadInterval    = 5
	defaultRequestTimeout      = 60
	defaultDatesFile           = "dates.toml"
	defaultDatesWindowDays     = 90
	defaultPrioritiesFile      = "priorities.toml"
	defaultKarabinerFile       = "~/.config/karabiner/karabiner.json"
	defaultAudioVolume         = 4
	defaultNotifyTimeout       = 10
)

var defaultAudioExtensions = []string{".flac", ".opus", ".mp3"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			SyncDir:  defaultSyncDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Tasks: Tasks{
			Dir:            defaultTasksDir,
			DefaultProfile: defaultProfile,
			SecretVar:      defaultSecretVar,
			SudoHelper:     defaultSudoHelper,
		},
		MomentGarden: MomentGarden{
			BaseURL:                 defaultMomentGardenBaseURL,
			GardensFile:             defaultGardensFile,
			CommentsPath:            defaultCommentsPath,
			UserAgent:               defaultUserAgent,
			PerPage:                 defaultPerPage,
			RequestIntervalSeconds:  defaultRequestInterval,
			DownloadLimit:           defaultDownloadLimit,
			DownloadIntervalSeconds: defaultDownloadInterval,
			RequestTimeout:          defaultRequestTimeout,
		},
		Dates: Dates{
			File:       defaultDatesFile,
			WindowDays: defaultDatesWindowDays,
		},
		Priorities: Priorities{
			File: defaultPrioritiesFile,
		},
		Shortcuts: Shortcuts{
			KarabinerFile: defaultKarabinerFile,
		},
		Audio: Audio{
			Volume:     defaultAudioVolume,
			Extensions: append([]string(nil), defaultAudioExtensions...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			OnlyFailures:   true,
			Downloads:      true,
		},
	}
}
