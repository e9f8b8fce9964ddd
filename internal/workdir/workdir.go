// Package workdir manages the per-acquisition scratch folders and their
// deferred removal.
package workdir

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const folderPrefix = "track_"

// New creates a uniquely named scratch folder under baseDir and returns its
// path. Each acquisition owns exactly one folder; the random id keeps
// concurrent requests from colliding.
func New(baseDir string) (string, error) {
	folder := filepath.Join(baseDir, folderPrefix+newID())
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("failed to create working folder: %w", err)
	}
	return folder, nil
}

// newID returns an 8-character hex id.
func newID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("workdir: rand.Read: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Remove deletes a working folder and everything in it. A folder that no
// longer exists is not an error.
func Remove(folder string) error {
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(folder)
}

// Janitor schedules working folder removals after a grace delay, so a folder
// is not reclaimed while its file is still being streamed out.
type Janitor struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewJanitor(delay time.Duration) *Janitor {
	return &Janitor{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arranges for folder to be removed after the janitor's delay and
// returns a cancel function. Scheduling the same folder again resets the
// timer. Removal is best-effort: a missing folder is skipped silently.
func (j *Janitor) Schedule(folder string) (cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if timer, ok := j.timers[folder]; ok {
		timer.Stop()
	}

	timer := time.AfterFunc(j.delay, func() {
		j.mu.Lock()
		delete(j.timers, folder)
		j.mu.Unlock()

		if err := Remove(folder); err != nil {
			slog.Error("Failed to remove working folder", "folder", folder, "error", err)
			return
		}
		slog.Debug("Removed working folder", "folder", folder)
	})
	j.timers[folder] = timer

	return func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if t, ok := j.timers[folder]; ok && t == timer {
			t.Stop()
			delete(j.timers, folder)
		}
	}
}
