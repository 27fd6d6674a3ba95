package audio

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"goodmorning/internal/media/ffprobe"
	"goodmorning/internal/shell"
	"goodmorning/internal/textutil"
)

// maxTitleWidth bounds the "artist – title" line.
const maxTitleWidth = 80

// Player plays files one after another with ffplay.
type Player struct {
	Runner  shell.Runner
	FFprobe string
	FFplay  string
	Volume  int
	Out     io.Writer
	// Color enables the green now-playing line.
	Color bool
}

// NowPlaying renders the two display lines for a track: the artist and
// title joined by an en dash, and the artist url below it.
func NowPlaying(tags map[string]string) (title, url string) {
	title = textutil.Truncate(tags["artist"]+" – "+tags["title"], maxTitleWidth)
	return title, tags["url"]
}

// Play shows the tags of each file, then plays it. It stops at the first
// error or when ctx is cancelled.
func (p *Player) Play(ctx context.Context, files []string) error {
	highlight := color.New(color.FgGreen, color.Bold)
	if p.Color {
		highlight.EnableColor()
	} else {
		highlight.DisableColor()
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		tags, err := ffprobe.Tags(ctx, p.Runner, p.FFprobe, file)
		if err != nil {
			return err
		}
		title, url := NowPlaying(tags)
		// the blank line scrolls the previous track out of a two-line view
		fmt.Fprintln(p.Out)
		fmt.Fprintf(p.Out, "%s %s\n", highlight.Sprint("♪"), highlight.Sprint(title))
		fmt.Fprintf(p.Out, "   %s\n", url)

		if _, err := p.Runner.Run(ctx, shell.Command{
			Name: p.ffplay(),
			Args: []string{"-nodisp", "-autoexit", "-volume", strconv.Itoa(p.Volume), file},
		}); err != nil {
			return fmt.Errorf("play %s: %w", file, err)
		}
	}
	return nil
}

func (p *Player) ffplay() string {
	if p.FFplay == "" {
		return "ffplay"
	}
	return p.FFplay
}
