package workdir

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	folder, err := New(tempDir)
	require.NoError(t, err)

	info, err := os.Stat(folder)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Regexp(t, regexp.MustCompile(`^track_[0-9a-f]{8}$`), filepath.Base(folder))
}

func TestNewFoldersAreUnique(t *testing.T) {
	tempDir := t.TempDir()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		folder, err := New(tempDir)
		require.NoError(t, err)
		assert.False(t, seen[folder], "folder %s was produced twice", folder)
		seen[folder] = true
	}
}

func TestRemove(t *testing.T) {
	tempDir := t.TempDir()

	folder, err := New(tempDir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.mp3"), []byte("x"), 0644))

	assert.NoError(t, Remove(folder))
	_, err = os.Stat(folder)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMissingFolderIsNotAnError(t *testing.T) {
	assert.NoError(t, Remove(filepath.Join(t.TempDir(), "track_deadbeef")))
}

func TestJanitorSchedule(t *testing.T) {
	tempDir := t.TempDir()

	folder, err := New(tempDir)
	require.NoError(t, err)

	janitor := NewJanitor(10 * time.Millisecond)
	janitor.Schedule(folder)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(folder)
		return os.IsNotExist(err)
	}, time.Second, 5*time.Millisecond)
}

func TestJanitorCancel(t *testing.T) {
	tempDir := t.TempDir()

	folder, err := New(tempDir)
	require.NoError(t, err)

	janitor := NewJanitor(10 * time.Millisecond)
	cancel := janitor.Schedule(folder)
	cancel()

	time.Sleep(50 * time.Millisecond)
	_, err = os.Stat(folder)
	assert.NoError(t, err, "cancelled removal should leave the folder in place")
}
