package record

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// OutputWatcher reports when expected output files appear in a directory.
type OutputWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	logger  *slog.Logger
	done    chan struct{}

	mu      sync.Mutex
	waiting map[string]chan struct{}
	running bool
}

// NewOutputWatcher creates a watcher for dir.
func NewOutputWatcher(dir string, logger *slog.Logger) (*OutputWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &OutputWatcher{
		watcher: watcher,
		dir:     dir,
		logger:  logger,
		done:    make(chan struct{}),
		waiting: make(map[string]chan struct{}),
	}, nil
}

// Start begins watching the directory.
func (w *OutputWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	go w.watch()
	return nil
}

// Expect returns a channel that is closed once path exists.
func (w *OutputWatcher) Expect(path string) <-chan struct{} {
	name := filepath.Base(path)
	ch := make(chan struct{})

	w.mu.Lock()
	w.waiting[name] = ch
	w.mu.Unlock()

	// The file may have been created before registration.
	if _, err := os.Stat(path); err == nil {
		w.resolve(name)
	}
	return ch
}

func (w *OutputWatcher) resolve(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ch, ok := w.waiting[name]; ok {
		close(ch)
		delete(w.waiting, name)
	}
}

// watch is the main watch loop.
func (w *OutputWatcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.resolve(filepath.Base(event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("output watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher.
func (w *OutputWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return w.watcher.Close()
	}

	w.running = false
	close(w.done)
	return w.watcher.Close()
}
