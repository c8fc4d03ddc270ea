package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"vacpac/internal/console"
	"vacpac/internal/utils"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange whenever a build input under Dir changes. Changes to
// the Generated files, relative to Dir, are ignored.
type Watcher struct {
	Dir       string
	Debounce  time.Duration
	Log       *console.Logger
	Generated []string
	OnChange  func(ctx context.Context) error
}

// New creates a Watcher with the default debounce.
func New(dir string, log *console.Logger, onChange func(ctx context.Context) error) *Watcher {
	return &Watcher{Dir: dir, Debounce: DefaultDebounce, Log: log, OnChange: onChange}
}

// Run watches until ctx is cancelled. A failing OnChange is logged and the
// watch goes on.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dirs, err := utils.WatchDirs(w.Dir)
	if err != nil {
		return fmt.Errorf("failed to list directories of %s: %w", w.Dir, err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.Log.Info("Watching %s (%d directories)", w.Log.Path(w.Dir), len(dirs))

	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				w.watchNewDir(fw, event.Name)
			}
			if event.Op == fsnotify.Chmod || !utils.IsBuildInput(w.Dir, event.Name, w.Generated...) {
				continue
			}
			w.Log.Debug("%s %s", event.Op, event.Name)
			timer.Reset(w.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.Log.Warn("Too many changes at once, rebuilding")
				timer.Reset(w.Debounce)
				continue
			}
			w.Log.Error("watch error: %v", err)
		case <-timer.C:
			if err := w.OnChange(ctx); err != nil {
				w.Log.Error("%v", err)
			}
		}
	}
}

// watchNewDir adds directories created after the watch started.
func (w *Watcher) watchNewDir(fw *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	dirs, err := utils.WatchDirs(path)
	if err != nil {
		return
	}
	for _, dir := range dirs {
		if !utils.IsWatchedDir(w.Dir, dir) {
			continue
		}
		if err := fw.Add(dir); err != nil {
			w.Log.Warn("failed to watch %s: %v", dir, err)
		}
	}
}
