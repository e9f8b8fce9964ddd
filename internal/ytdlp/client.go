// Package ytdlp drives the external yt-dlp binary for video-platform
// metadata lookups and audio extraction.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
)

var (
	ErrNotInstalled = fmt.Errorf("yt-dlp not installed")
	ErrNoFFmpeg     = fmt.Errorf("ffmpeg not installed")
)

// Info is the subset of the yt-dlp JSON dump the pipeline consumes.
type Info struct {
	Type       string  `json:"_type"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Thumbnail  string  `json:"thumbnail"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
}

// IsPlaylist reports whether the URL resolved to a playlist rather than a
// single video.
func (i *Info) IsPlaylist() bool {
	return i.Type == "playlist" || i.Type == "multi_video"
}

// DownloadOptions is the typed options bag for an extraction run.
type DownloadOptions struct {
	Format         string // e.g. "bestaudio/best"
	AudioFormat    string // e.g. "mp3"
	AudioQuality   string // e.g. "0" (best VBR)
	OutputPath     string
	ExtractAudio   bool
	EmbedMetadata  bool
	EmbedThumbnail bool
	NoPlaylist     bool
}

// Args renders the options into a yt-dlp argument list. ffmpegPath, when
// set, points yt-dlp at a specific ffmpeg binary for the conversion step.
func (o DownloadOptions) Args(url, ffmpegPath string) []string {
	var args []string

	if o.Format != "" {
		args = append(args, "--format", o.Format)
	}
	if o.ExtractAudio {
		args = append(args, "--extract-audio")
	}
	if o.AudioFormat != "" {
		args = append(args, "--audio-format", o.AudioFormat)
	}
	if o.AudioQuality != "" {
		args = append(args, "--audio-quality", o.AudioQuality)
	}
	if o.EmbedMetadata {
		args = append(args, "--embed-metadata")
	}
	if o.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if o.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	if ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}
	if o.OutputPath != "" {
		args = append(args, "--output", o.OutputPath)
	}

	return append(args, url)
}

// Client wraps the yt-dlp binary.
type Client struct {
	binPath    string
	ffmpegPath string
}

func NewClient(binPath, ffmpegPath string) *Client {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Client{binPath: binPath, ffmpegPath: ffmpegPath}
}

// CheckInstalled verifies that both yt-dlp and ffmpeg respond; extraction
// needs the two of them.
func (c *Client) CheckInstalled(ctx context.Context) error {
	if err := exec.CommandContext(ctx, c.binPath, "--version").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}

	ffmpeg := c.ffmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if err := exec.CommandContext(ctx, ffmpeg, "-version").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoFFmpeg, err)
	}

	return nil
}

// GetInfo resolves a URL to its descriptor without downloading anything.
// Playlist URLs resolve to a playlist-typed Info; the caller decides how to
// treat those.
func (c *Client) GetInfo(ctx context.Context, url string) (*Info, error) {
	cmd := exec.CommandContext(ctx, c.binPath,
		"--dump-single-json",
		"--flat-playlist",
		"--no-warnings",
		url,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, newRunError(cmd, nil, err)
	}

	var info Info
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	return &info, nil
}

// Download runs an extraction with the given options.
func (c *Client) Download(ctx context.Context, url string, opts DownloadOptions) error {
	args := opts.Args(url, c.ffmpegPath)

	slog.Debug("Executing yt-dlp", "args", args)

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newRunError(cmd, output, err)
	}

	return nil
}

// runError wraps a yt-dlp failure with its captured output.
type runError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *runError) Error() string {
	return fmt.Sprintf("yt-dlp error: %s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *runError) Unwrap() error {
	return e.wrapped
}

// newRunError creates a runError with a truncated command string; output may
// be nil when only stderr from an ExitError is available.
func newRunError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}

	text := string(output)
	if text == "" {
		if exitErr, ok := err.(*exec.ExitError); ok {
			text = string(exitErr.Stderr)
		}
	}

	return &runError{cmd: cmdStr, output: text, wrapped: err}
}
