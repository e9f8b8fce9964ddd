package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFFmpegDefaultsBinPath(t *testing.T) {
	engine := NewFFmpeg("")
	assert.Equal(t, "ffmpeg", engine.binPath)
}

func TestEnsureMP3FastPath(t *testing.T) {
	tempDir := t.TempDir()

	inputPath := filepath.Join(tempDir, "track.mp3")
	require.NoError(t, os.WriteFile(inputPath, []byte("mp3data"), 0644))

	// binary path that cannot possibly run; the fast path must not invoke it
	engine := NewFFmpeg(filepath.Join(tempDir, "no-such-ffmpeg"))

	outputPath, err := engine.EnsureMP3(context.Background(), inputPath)
	require.NoError(t, err)
	assert.Equal(t, inputPath, outputPath)

	// no filesystem writes happened
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureMP3FastPathIsCaseInsensitive(t *testing.T) {
	tempDir := t.TempDir()

	inputPath := filepath.Join(tempDir, "track.MP3")
	require.NoError(t, os.WriteFile(inputPath, []byte("mp3data"), 0644))

	engine := NewFFmpeg(filepath.Join(tempDir, "no-such-ffmpeg"))

	outputPath, err := engine.EnsureMP3(context.Background(), inputPath)
	require.NoError(t, err)
	assert.Equal(t, inputPath, outputPath)
}

func TestEnsureMP3MissingInput(t *testing.T) {
	engine := NewFFmpeg("ffmpeg")

	_, err := engine.EnsureMP3(context.Background(), filepath.Join(t.TempDir(), "missing.m4a"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestEnsureMP3EmptyInput(t *testing.T) {
	tempDir := t.TempDir()

	inputPath := filepath.Join(tempDir, "empty.m4a")
	require.NoError(t, os.WriteFile(inputPath, nil, 0644))

	engine := NewFFmpeg("ffmpeg")

	_, err := engine.EnsureMP3(context.Background(), inputPath)
	assert.ErrorIs(t, err, ErrFileEmpty)
}

// writeFakeFFmpeg installs a shell script standing in for ffmpeg. Its
// behavior is scripted per invocation via the case patterns in body.
func writeFakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestEnsureMP3Transcodes(t *testing.T) {
	tempDir := t.TempDir()

	inputPath := filepath.Join(tempDir, "track.m4a")
	require.NoError(t, os.WriteFile(inputPath, []byte("m4adata"), 0644))

	// succeed on every invocation, writing the output (last argument)
	fakeBin := writeFakeFFmpeg(t, `
for out; do :; done
echo converted > "$out"
exit 0
`)

	engine := NewFFmpeg(fakeBin)

	outputPath, err := engine.EnsureMP3(context.Background(), inputPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "track.mp3"), outputPath)

	_, err = os.Stat(outputPath)
	assert.NoError(t, err)

	_, err = os.Stat(inputPath)
	assert.True(t, os.IsNotExist(err), "original file should be removed after conversion")
}

func TestEnsureMP3RepairFallback(t *testing.T) {
	tempDir := t.TempDir()

	inputPath := filepath.Join(tempDir, "track.m4a")
	require.NoError(t, os.WriteFile(inputPath, []byte("m4adata"), 0644))

	// primary transcode fails; the repair pass and the retry against the
	// repaired file succeed
	fakeBin := writeFakeFFmpeg(t, `
for out; do :; done
case "$*" in
*"+genpts"*) echo repaired > "$out"; exit 0 ;;
*".fixed.m4a"*) echo converted > "$out"; exit 0 ;;
*) exit 1 ;;
esac
`)

	engine := NewFFmpeg(fakeBin)

	outputPath, err := engine.EnsureMP3(context.Background(), inputPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "track.mp3"), outputPath)

	_, err = os.Stat(outputPath)
	assert.NoError(t, err)

	_, err = os.Stat(inputPath + repairSuffix)
	assert.True(t, os.IsNotExist(err), "repaired intermediate should be cleaned up")

	_, err = os.Stat(inputPath)
	assert.True(t, os.IsNotExist(err), "original file should be removed after conversion")
}

func TestEnsureMP3TotalFailure(t *testing.T) {
	tempDir := t.TempDir()

	inputPath := filepath.Join(tempDir, "track.m4a")
	require.NoError(t, os.WriteFile(inputPath, []byte("m4adata"), 0644))

	fakeBin := writeFakeFFmpeg(t, "exit 1\n")

	engine := NewFFmpeg(fakeBin)

	_, err := engine.EnsureMP3(context.Background(), inputPath)
	assert.ErrorIs(t, err, ErrTranscodeFailed)

	// original input is left in place for inspection
	_, statErr := os.Stat(inputPath)
	assert.NoError(t, statErr)
}

func TestTranscodeArgs(t *testing.T) {
	args := transcodeArgs("in.m4a", "out.tmp.mp3")
	assert.Equal(t, []string{
		"-y",
		"-i", "in.m4a",
		"-vn",
		"-map_metadata", "0",
		"-c:a", "libmp3lame",
		"-q:a", "0",
		"-ar", "48000",
		"out.tmp.mp3",
	}, args)
}

func TestRepairArgs(t *testing.T) {
	args := repairArgs("in.m4a", "in.m4a.fixed.m4a")
	assert.Equal(t, []string{
		"-y",
		"-fflags", "+genpts",
		"-i", "in.m4a",
		"-map_metadata", "0",
		"-c", "copy",
		"-movflags", "+faststart",
		"in.m4a.fixed.m4a",
	}, args)
}
