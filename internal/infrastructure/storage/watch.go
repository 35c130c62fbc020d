package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events one rewrite produces.
const DefaultWatchDebounce = 100 * time.Millisecond

// Watch calls onChange whenever the FS store file is written, replaced or
// removed by anything other than this store, such as another process or a
// manual wipe. Rewrites made through s itself are not reported. Bursts closer
// than debounce are reported once. It blocks until ctx is done.
func (s *FS) Watch(ctx context.Context, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("watch: create dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	// Watch the directory: the file itself is replaced on every write.
	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	logger.Debug("watching store", "path", s.Path())

	target := filepath.Clean(s.Path())
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !pending {
				pending = true
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("store watcher error", "err", err)
		case <-timer.C:
			pending = false
			if s.unchangedSinceSave() {
				continue
			}
			onChange()
		}
	}
}
