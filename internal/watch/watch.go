// Package watch re-runs the rules whenever files appear in the directories
// they read from.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Logger is the logging interface used by the watcher.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Watcher watches a set of directory trees and triggers debounced runs.
type Watcher struct {
	watcher  *fsnotify.Watcher
	log      Logger
	debounce *Debouncer
	limiter  *rate.Limiter
	serial   serial
	dirs     []string
}

// New creates a watcher over dirs. Directories that do not exist are
// skipped with a warning when Run starts.
func New(dirs []string, interval time.Duration, log Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watcher:  w,
		log:      log,
		debounce: NewDebouncer(interval),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		dirs:     dirs,
	}, nil
}

// Run watches until ctx is cancelled, calling run once per quiet period
// after relevant events. Calls to run never overlap and start at most once
// per debounce interval. Run returns only after a call in progress has
// returned, and closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, run func(ctx context.Context)) error {
	defer w.watcher.Close()
	defer w.drain()

	watched := 0
	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			w.log.Warn("Not watching %s: %v", dir, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no directory to watch")
	}
	w.log.Info("Watching %d director%s (debounce %s)", watched, pluralY(watched), w.debounce.interval)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.log.Info("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("File event: %s %s", event.Op, event.Name)
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("Not watching %s: %v", event.Name, err)
					}
				}
			}
			w.debounce.Trigger(func() {
				w.serial.do(func() {
					if err := w.limiter.Wait(ctx); err != nil {
						return
					}
					run(ctx)
				})
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error("File watcher error: %v", err)
		}
	}
}

// drain cancels any pending run and waits for one already started.
func (w *Watcher) drain() {
	w.debounce.Stop()
	w.debounce.Wait()
}

// addTree watches dir and every non-hidden subdirectory.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.log.Debug("Watching directory %s", path)
		return nil
	})
}

// relevant filters out permission changes and hidden files, which include
// the temporary files written while copying.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !hidden(event.Name)
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
