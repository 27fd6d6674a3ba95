// Package audio finds audio files, plays them through ffplay and rewrites
// their url and copyright tags through ffmpeg.
package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions are the audio formats collected when none are configured.
var DefaultExtensions = []string{".flac", ".opus", ".mp3"}

// Collection is the result of Collect.
type Collection struct {
	Files []string
	Dirs  int
}

// Collect expands paths into audio files. Directories are walked
// recursively; files whose extension is not in exts (cover art, playlists)
// are skipped. A missing path or one that is neither a regular file nor a
// directory is an error. Symlinks are not followed.
func Collect(paths []string, exts []string) (Collection, error) {
	if len(paths) == 0 {
		return Collection{}, errors.New("at least one file or directory is required")
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var out Collection
	queue := slices.Clone(paths)
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		info, err := os.Lstat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Collection{}, fmt.Errorf("%s does not exist", path)
			}
			return Collection{}, err
		}
		switch {
		case info.IsDir():
			entries, err := os.ReadDir(path)
			if err != nil {
				return Collection{}, fmt.Errorf("read %s: %w", path, err)
			}
			for _, entry := range entries {
				queue = append(queue, filepath.Join(path, entry.Name()))
			}
			out.Dirs++
		case info.Mode().IsRegular():
			if IsAudioFile(path, exts) {
				out.Files = append(out.Files, path)
			}
		default:
			return Collection{}, fmt.Errorf("%s is not a file or directory", path)
		}
	}
	return out, nil
}

// IsAudioFile reports whether path has one of exts.
func IsAudioFile(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// Shuffle randomizes files in place with a Fisher-Yates shuffle. A nil rng
// uses the global source.
func Shuffle(files []string, rng *rand.Rand) {
	for i := len(files) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		files[i], files[j] = files[j], files[i]
	}
}
