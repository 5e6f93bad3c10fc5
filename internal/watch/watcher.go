// Package watch re-runs a local sync whenever a watched document or the
// ordering override changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a
// resync runs.
const DefaultDebounce = 300 * time.Millisecond

// EventCallback is called for every relevant file change. kind is one of
// "created", "updated", "deleted"; path is absolute.
type EventCallback func(kind, path string)

// Config describes what to watch and what to do about it.
type Config struct {
	// Dirs are watched non-recursively. Missing directories are skipped.
	Dirs []string
	// Match selects relevant files by absolute path. Nil matches *.md.
	Match func(path string) bool
	// Debounce overrides DefaultDebounce.
	Debounce time.Duration
	// Resync runs once per burst of changes.
	Resync func(ctx context.Context) error
	// OnEvent, if set, is called for every matched change.
	OnEvent EventCallback
	Logger  *slog.Logger
}

// Watch processes file change events until ctx is cancelled. Changes are
// coalesced: Resync runs once after Debounce of quiet.
func Watch(ctx context.Context, cfg Config) error {
	if cfg.Resync == nil {
		return errors.New("watch: resync is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	match := cfg.Match
	if match == nil {
		match = func(p string) bool { return filepath.Ext(p) == ".md" }
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	watched := 0
	for _, dir := range cfg.Dirs {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			logger.Warn("watcher: skipping missing dir", slog.String("dir", dir))
			continue
		}
		if addErr := w.Add(dir); addErr != nil {
			return fmt.Errorf("watch: add %s: %w", dir, addErr)
		}
		watched++
	}
	if watched == 0 {
		return errors.New("watch: no directory to watch")
	}

	logger.Info("watcher: started", slog.Any("dirs", cfg.Dirs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			if syncErr := cfg.Resync(ctx); syncErr != nil {
				logger.Error("watcher: resync failed", slog.String("error", syncErr.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !match(ev.Name) {
				continue
			}

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&fsnotify.Write != 0:
				kind = "updated"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; the new name arrives
				// as a separate Create.
				kind = "deleted"
			default:
				continue
			}

			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", kind))
			if cfg.OnEvent != nil {
				cfg.OnEvent(kind, ev.Name)
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
