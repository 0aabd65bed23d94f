// Package watch re-runs a callback whenever a directory tree changes,
// using a debounced fsnotify event loop to trigger a fresh archive
// build once a burst of filesystem activity settles.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures Run.
type Options struct {
	// Debounce coalesces a burst of events (e.g. an editor's
	// write-then-rename save) into a single callback invocation.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Run watches root (and, recursively, every subdirectory under it) and
// invokes rebuild once per debounced burst of changes, until ctx is
// canceled.
func Run(ctx context.Context, root string, opts Options, rebuild func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	logger := opts.logger()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := watcher.Add(event.Name); addErr != nil {
						logger.Warn("watch: failed to add new directory", "path", event.Name, "error", addErr)
					}
				}
			}
			logger.Debug("watch: change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: fsnotify error", "error", err)

		case <-timerC:
			timerC = nil
			if err := rebuild(); err != nil {
				logger.Error("watch: rebuild failed", "error", err)
			} else {
				logger.Info("watch: rebuild complete")
			}
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
