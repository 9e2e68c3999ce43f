package lua

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the plugins directory and reloads changed scripts.
// OnChange, if set, is called after a batch of events was processed, e.g. to rebuild the engine
// when scripts were added or removed.
type Watcher struct {
	OnChange func()

	checker      *Checker
	dir          string
	watcher      *fsnotify.Watcher
	done         chan struct{}
	debounceTime time.Duration

	mu      sync.Mutex
	events  map[string]time.Time
	started bool
}

// NewWatcher creates a new file system watcher for lua plugins
func NewWatcher(checker *Checker, dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		checker:      checker,
		dir:          dir,
		watcher:      w,
		done:         make(chan struct{}),
		debounceTime: 500 * time.Millisecond,
		events:       make(map[string]time.Time),
	}, nil
}

// Start begins watching the directory. Repeated calls are no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if _, err := os.Stat(w.dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("plugins directory %s does not exist: %w", w.dir, err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch plugins directory: %w", err)
	}
	w.started = true
	log.Printf("[INFO] started watching lua plugins directory: %s", w.dir)
	go w.loop()
	return nil
}

// Stop terminates the watcher
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	close(w.done)
	if err := w.watcher.Close(); err != nil {
		log.Printf("[WARN] failed to close file watcher: %v", err)
	}
	w.started = false
	log.Printf("[INFO] stopped watching lua plugins directory: %s", w.dir)
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] lua watcher error: %v", err)
		case <-ticker.C:
			w.processEvents()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Ext(event.Name) != ".lua" {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.events[event.Name] = time.Now()
		w.mu.Unlock()
	}
}

// processEvents handles events older than debounce time
func (w *Watcher) processEvents() {
	w.mu.Lock()
	changed := false
	now := time.Now()
	for name, ts := range w.events {
		if now.Sub(ts) < w.debounceTime {
			continue
		}
		delete(w.events, name)
		changed = true
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			log.Printf("[INFO] lua script removed: %s", name)
			w.checker.RemoveScript(name)
			continue
		}
		log.Printf("[INFO] reloading lua script: %s", name)
		if err := w.checker.ReloadScript(name); err != nil {
			log.Printf("[WARN] failed to reload lua script %s: %v", name, err)
		}
	}
	onChange := w.OnChange
	w.mu.Unlock()

	if changed && onChange != nil {
		onChange()
	}
}
