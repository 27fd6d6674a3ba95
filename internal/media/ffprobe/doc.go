// Package ffprobe reads audio metadata tags with ffprobe.
//
// Tags can be stored on a stream (opus) or on the container (flac, mp3), so
// Result.Tags merges both with lowercased keys, container tags taking
// precedence.
package ffprobe
