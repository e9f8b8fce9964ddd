// Package audio normalizes downloaded audio to a playable MP3 container by
// driving an external FFmpeg binary.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// MP3 encode profile: highest-quality VBR at 48kHz, source tags preserved.
const (
	mp3Quality   = "0"
	sampleRate   = "48000"
	repairSuffix = ".fixed.m4a"
)

var (
	ErrFileNotFound    = fmt.Errorf("file not found")
	ErrFileEmpty       = fmt.Errorf("file is empty")
	ErrInvalidPath     = fmt.Errorf("invalid path")
	ErrTranscodeFailed = fmt.Errorf("transcode failed")
)

// ffmpegError wraps FFmpeg command errors with additional context
type ffmpegError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *ffmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *ffmpegError) Unwrap() error {
	return e.wrapped
}

// newFFmpegError creates a new ffmpegError with truncated command output
func newFFmpegError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	return &ffmpegError{
		cmd:     cmdStr,
		output:  string(output),
		wrapped: err,
	}
}

// FFmpeg is the MP3 normalizer.
type FFmpeg struct {
	binPath string
}

func NewFFmpeg(binPath string) *FFmpeg {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpeg{binPath: binPath}
}

func (f *FFmpeg) validateFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("unable to access file: %s: %w", path, err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrFileEmpty, path)
	}

	return nil
}

// EnsureMP3 guarantees that the audio at inputPath is an MP3. Files already
// carrying a .mp3 extension are returned unchanged. Anything else is
// transcoded next to the input, replacing it; when the direct transcode
// fails, the container is repaired (lossless re-mux with regenerated
// timestamps) and the transcode retried once before giving up.
func (f *FFmpeg) EnsureMP3(ctx context.Context, inputPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(inputPath), ".mp3") {
		return inputPath, nil
	}

	if err := f.validateFile(inputPath); err != nil {
		return "", fmt.Errorf("mp3 conversion failed: %w", err)
	}

	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	outputPath := base + ".mp3"
	tempPath := base + ".tmp.mp3"

	repaired := ""
	if err := f.run(ctx, transcodeArgs(inputPath, tempPath)); err != nil {
		slog.Warn("MP3 transcode failed, repairing container", "input", inputPath, "error", err)

		var repairErr error
		repaired, repairErr = f.repairContainer(ctx, inputPath)
		if repairErr != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrTranscodeFailed, inputPath, repairErr)
		}

		if err := f.run(ctx, transcodeArgs(repaired, tempPath)); err != nil {
			os.Remove(repaired)
			os.Remove(tempPath)
			return "", fmt.Errorf("%w: %s: %v", ErrTranscodeFailed, inputPath, err)
		}
	}

	if repaired != "" {
		if err := os.Remove(repaired); err != nil {
			slog.Warn("Failed to remove repaired intermediate", "path", repaired, "error", err)
		}
	}

	if err := os.Remove(inputPath); err != nil {
		return "", fmt.Errorf("failed to remove original file: %w", err)
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return "", fmt.Errorf("failed to finalize mp3: %w", err)
	}

	slog.Info("Converted to MP3", "input", inputPath, "output", outputPath)
	return outputPath, nil
}

// repairContainer re-muxes the input into a fresh M4A container with
// regenerated timestamps, without re-encoding the audio stream. This fixes
// container-level damage (malformed timestamps) that the direct transcode
// path cannot read.
func (f *FFmpeg) repairContainer(ctx context.Context, inputPath string) (string, error) {
	fixedPath := inputPath + repairSuffix

	if err := f.run(ctx, repairArgs(inputPath, fixedPath)); err != nil {
		return "", err
	}

	return fixedPath, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	slog.Debug("Executing ffmpeg", "args", args)

	cmd := exec.CommandContext(ctx, f.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}

func transcodeArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-map_metadata", "0",
		"-c:a", "libmp3lame",
		"-q:a", mp3Quality,
		"-ar", sampleRate,
		outputPath,
	}
}

func repairArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-fflags", "+genpts",
		"-i", inputPath,
		"-map_metadata", "0",
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
}
