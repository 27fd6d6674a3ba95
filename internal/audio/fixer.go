package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"goodmorning/internal/fileutil"
	"goodmorning/internal/media/ffprobe"
	"goodmorning/internal/shell"
)

// License is a Creative Commons license an artist may publish under.
type License struct {
	Name string
	Text string
}

// Licenses lists the selectable copyright values, in prompt order.
var Licenses = []License{
	{"CC BY 4.0", "Attribution: http://creativecommons.org/licenses/by/4.0/"},
	{"CC BY 3.0", "Attribution: http://creativecommons.org/licenses/by/3.0/"},
	{"CC BY-NC 4.0", "Attribution-NonCommercial: http://creativecommons.org/licenses/by-nc/4.0/"},
	{"CC BY-NC 3.0", "Attribution-NonCommercial: http://creativecommons.org/licenses/by-nc/3.0/"},
}

// ErrMetadataMismatch is returned when the rewritten file does not carry
// the requested tags.
var ErrMetadataMismatch = errors.New("metadata did not update correctly")

// ArtistInfo is what gets written into every file of an artist.
type ArtistInfo struct {
	URL       string
	Copyright string
}

// Fixer sets the url and copyright tags of audio files, asking once per
// artist.
type Fixer struct {
	Runner  shell.Runner
	FFprobe string
	FFmpeg  string
	In      io.Reader
	Out     io.Writer
	// TempDir holds rewritten files before they replace the originals.
	// Empty means the directory of each file.
	TempDir string

	scanner *bufio.Scanner
	artists map[string]ArtistInfo
}

// Fix rewrites each file in order, stopping at the first failure.
func (f *Fixer) Fix(ctx context.Context, files []string) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.fixFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fixer) fixFile(ctx context.Context, file string) error {
	tags, err := ffprobe.Tags(ctx, f.Runner, f.FFprobe, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.Out, "Modifying %s – %s...\n", tags["artist"], tags["title"])

	info, err := f.artistInfo(tags["artist"])
	if err != nil {
		return err
	}

	tmp, err := f.tempFile(file)
	if err != nil {
		return err
	}
	if err := f.writeMetadata(ctx, file, tmp, info); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := f.verify(ctx, tmp, info); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	fmt.Fprintf(f.Out, "%s -> %s\n", tmp, file)
	return fileutil.ReplaceFile(tmp, file)
}

func (f *Fixer) tempFile(file string) (string, error) {
	dir := f.TempDir
	if dir == "" {
		dir = filepath.Dir(file)
	}
	tmp, err := os.CreateTemp(dir, ".fix-*"+filepath.Ext(file))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// writeMetadata copies file to tmp with new tags on the first audio stream.
// -y is needed because tmp already exists.
func (f *Fixer) writeMetadata(ctx context.Context, file, tmp string, info ArtistInfo) error {
	ffmpeg := f.FFmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	_, err := f.Runner.Run(ctx, shell.Command{
		Name: ffmpeg,
		Args: []string{
			"-y", "-i", file,
			"-metadata:s:a:0", "copyright=" + info.Copyright,
			"-metadata:s:a:0", "url=" + info.URL,
			"-codec", "copy",
			tmp,
		},
	})
	if err != nil {
		return fmt.Errorf("write metadata for %s: %w", file, err)
	}
	return nil
}

func (f *Fixer) verify(ctx context.Context, tmp string, info ArtistInfo) error {
	tags, err := ffprobe.Tags(ctx, f.Runner, f.FFprobe, tmp)
	if err != nil {
		return err
	}
	if tags["url"] != info.URL || tags["copyright"] != info.Copyright {
		fmt.Fprintf(f.Out, "%s, %s ❌\nexpected: %s, %s\n", tags["url"], tags["copyright"], info.URL, info.Copyright)
		return ErrMetadataMismatch
	}
	fmt.Fprintf(f.Out, "%s, %s ✅\n", info.URL, info.Copyright)
	return nil
}

func (f *Fixer) artistInfo(artist string) (ArtistInfo, error) {
	if info, ok := f.artists[artist]; ok {
		return info, nil
	}
	copyright, err := f.promptCopyright(artist)
	if err != nil {
		return ArtistInfo{}, err
	}
	url, err := f.promptURL(artist)
	if err != nil {
		return ArtistInfo{}, err
	}
	if f.artists == nil {
		f.artists = make(map[string]ArtistInfo)
	}
	info := ArtistInfo{URL: url, Copyright: copyright}
	f.artists[artist] = info
	return info, nil
}

func (f *Fixer) readLine() (string, error) {
	if f.scanner == nil {
		f.scanner = bufio.NewScanner(f.In)
	}
	fmt.Fprint(f.Out, "> ")
	if !f.scanner.Scan() {
		if err := f.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(f.scanner.Text()), nil
}

func (f *Fixer) promptCopyright(artist string) (string, error) {
	fmt.Fprintf(f.Out, "What copyright does %s use?\n", artist)
	for i, license := range Licenses {
		fmt.Fprintf(f.Out, "[%d] %s\n", i, license.Name)
	}
	input, err := f.readLine()
	if err != nil {
		return "", fmt.Errorf("read copyright: %w", err)
	}
	if input == "" {
		return "", errors.New("no copyright input given")
	}
	index, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("valid index not given: %q", input)
	}
	if index < 0 || index >= len(Licenses) {
		return "", fmt.Errorf("did not select a valid copyright: %d", index)
	}
	fmt.Fprintf(f.Out, "(input '%s')\n", Licenses[index].Name)
	return Licenses[index].Text, nil
}

func (f *Fixer) promptURL(artist string) (string, error) {
	fmt.Fprintf(f.Out, "What URL to use for %s?\n", artist)
	input, err := f.readLine()
	if err != nil {
		return "", fmt.Errorf("read url: %w", err)
	}
	if input == "" {
		return "", errors.New("no URL input given")
	}
	return input, nil
}
