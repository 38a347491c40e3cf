// # internal/watcher/watcher.go
package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nisedo/Trackidity/internal/shared/observability"
)

// Watcher reruns work when tracked files change. Files are watched
// through their parent directories so editors that replace a file on
// save (rename plus create) keep delivering events.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	tracked    map[string]bool
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

func NewWatcher(debounce time.Duration, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		tracked:   make(map[string]bool),
		onChange:  onChange,
		pending:   make(map[string]time.Time),
	}, nil
}

// Watch registers the files to track and starts the event loop.
// Empty and "-" entries are skipped; at least one real file is needed.
func (w *Watcher) Watch(files []string) error {
	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" || f == "-" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		w.tracked[filepath.Clean(abs)] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(w.tracked) == 0 {
		return fmt.Errorf("no watchable files; stdin input cannot be watched")
	}

	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			name := filepath.Clean(event.Name)
			if !w.tracked[name] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.scheduleChange(name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

func (w *Watcher) Close() error {
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsWatcher.Close()
}
