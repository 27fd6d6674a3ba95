package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"goodmorning/internal/shell"
)

// Result represents the parsed output of a tag probe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream carries the tags stored on a single stream.
type Stream struct {
	Tags map[string]string `json:"tags"`
}

// Format captures container-level tags and duration.
type Format struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

// Probe runs ffprobe against path, asking only for stream and format tags.
func Probe(ctx context.Context, runner shell.Runner, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}

	res, err := runner.Run(ctx, shell.Command{
		Name: binary,
		Args: []string{"-loglevel", "error", "-of", "json", "-show_entries", "stream_tags:format_tags", path},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return Parse([]byte(res.Stdout))
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Tags merges stream and format tags under lowercased keys. Tags may live in
// either section depending on the container; format tags win.
func (r Result) Tags() map[string]string {
	tags := make(map[string]string)
	for _, stream := range r.Streams {
		for key, value := range stream.Tags {
			tags[strings.ToLower(key)] = value
		}
	}
	for key, value := range r.Format.Tags {
		tags[strings.ToLower(key)] = value
	}
	return tags
}

// Tags probes path and returns its merged tags.
func Tags(ctx context.Context, runner shell.Runner, binary, path string) (map[string]string, error) {
	result, err := Probe(ctx, runner, binary, path)
	if err != nil {
		return nil, err
	}
	return result.Tags(), nil
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
