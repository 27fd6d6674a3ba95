package deps

import (
	"sort"

	"goodmorning/internal/config"
)

// Requirements lists the media tools from cfg followed by the binaries the
// active task profile needs. Profile binaries already covered by a media
// tool are not repeated.
func Requirements(cfg *config.Config, profileBinaries []string) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Reads audio tags for play, tags, and fix",
			Optional:    true,
		},
		{
			Name:        "FFplay",
			Command:     cfg.FFplayBinary(),
			Description: "Plays the morning audio queue",
			Optional:    true,
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Rewrites audio license metadata",
			Optional:    true,
		},
	}

	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		seen[r.Command] = true
	}
	names := append([]string(nil), profileBinaries...)
	sort.Strings(names)
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		reqs = append(reqs, Requirement{
			Name:        name,
			Command:     name,
			Description: "Used by the task profile",
		})
	}
	return reqs
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
