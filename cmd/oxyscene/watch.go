package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// debounce absorbs the burst of events editors produce for a single save.
const debounce = 200 * time.Millisecond

// watcher reports changes to a set of files. It watches their parent directories so that
// editors replacing a file through a rename are still seen.
type watcher struct {
	fs      *fsnotify.Watcher
	logger  *log.Logger
	changes chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
}

func newWatcher(files []string, logger *log.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &watcher{
		fs:      fsw,
		logger:  logger,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		dirs:    make(map[string]bool),
	}
	if err := w.Watch(files); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

// Watch replaces the watched set. Remote URIs are skipped; directories no longer needed
// stay watched until Close.
//
// Parameters:
//   - files: local paths or file:// URIs
//
// Returns:
//   - error: error if a path cannot be resolved or its directory cannot be watched
func (w *watcher) Watch(files []string) error {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		p, ok := localPath(f)
		if !ok {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		set[abs] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for abs := range set {
		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files = set
	return nil
}

func (w *watcher) watching(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(name)]
}

func (w *watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.watching(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "err", err)
		}
	}
}

// Changes delivers at most one pending notification per settled burst of writes.
func (w *watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

// localPath maps a file path or file:// URI to a path; remote URIs report false.
func localPath(uri string) (string, bool) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return "", false
	case strings.HasPrefix(uri, "file://"):
		return strings.TrimPrefix(uri, "file://"), true
	default:
		return uri, true
	}
}
