package ffprobe

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"goodmorning/internal/testsupport"
)

const flacOutput = `{
    "streams": [
        {},
        {"tags": {"comment": "Cover (front)"}}
    ],
    "format": {
        "tags": {
            "TITLE": "We Are;",
            "ARTIST": "A Ninja Slob Drew Me",
            "COMMENT": "Visit http://ninjaslob.bandcamp.com",
            "album_artist": "A Ninja Slob Drew Me"
        }
    }
}`

func TestTagsFormatWins(t *testing.T) {
	result, err := Parse([]byte(flacOutput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]string{
		"title":        "We Are;",
		"artist":       "A Ninja Slob Drew Me",
		"comment":      "Visit http://ninjaslob.bandcamp.com",
		"album_artist": "A Ninja Slob Drew Me",
	}
	if diff := cmp.Diff(want, result.Tags()); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}
}

func TestTagsFromStreamOnly(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("ffprobe*", testsupport.Response{
		Stdout: `{"streams": [{"tags": {"encoder": "Lavc58 libopus", "TITLE": "We Are;"}}], "format": {}}`,
	})
	tags, err := Tags(context.Background(), runner, "", "song.opus")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if tags["title"] != "We Are;" || tags["encoder"] != "Lavc58 libopus" {
		t.Fatalf("unexpected tags %v", tags)
	}
	calls := runner.Calls()
	if len(calls) != 1 || calls[0] != "ffprobe -loglevel error -of json -show_entries stream_tags:format_tags song.opus" {
		t.Fatalf("unexpected ffprobe call %v", calls)
	}
}

func TestProbeErrors(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("ffprobe*", testsupport.Response{ExitCode: 1, Stderr: "No such file"})
	if _, err := Probe(context.Background(), runner, "ffprobe", "missing.flac"); err == nil {
		t.Fatal("expected error for failing ffprobe")
	}
	if _, err := Probe(context.Background(), runner, "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDurationSeconds(t *testing.T) {
	if got := (Result{Format: Format{Duration: "123.45"}}).DurationSeconds(); got != 123.45 {
		t.Fatalf("unexpected duration %v", got)
	}
	if got := (Result{}).DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for missing duration, got %v", got)
	}
	if got := (Result{Format: Format{Duration: "bad"}}).DurationSeconds(); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}
