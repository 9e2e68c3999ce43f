package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watch starts watching file for changes and calls onDataChange callback with the new content.
// The directory of the file is watched, so the file can be replaced by editors or config management.
// Changes are collected for the delay and reported once. Blocks until ctx is done.
func watch(ctx context.Context, path string, delay time.Duration, onDataChange func(io.Reader) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", path, err)
	}

	reloadTimer := time.NewTimer(delay)
	defer reloadTimer.Stop()
	reloadPending := false

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] stopping watcher for %s, %v", path, ctx.Err())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Printf("[DEBUG] file %q updated, op: %v", event.Name, event.Op)
			if !reloadPending {
				reloadPending = true
				reloadTimer.Reset(delay)
			}
		case <-reloadTimer.C:
			if !reloadPending {
				continue
			}
			reloadPending = false
			data, e := readFile(path)
			if e != nil {
				log.Printf("[WARN] failed to read updated file %s: %v", path, e)
				continue
			}
			if e = onDataChange(data); e != nil {
				log.Printf("[WARN] failed to load updated file %s: %v", path, e)
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", e)
		}
	}
}

func readFile(path string) (io.Reader, error) {
	file, err := os.Open(path) //nolint gosec // path is controlled by the app
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return bytes.NewReader(data), nil
}
