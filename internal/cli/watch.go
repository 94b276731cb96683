package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay groups bursts of writes into one re-parse.
const DebounceDelay = 300 * time.Millisecond

// Watch calls onChange with the files that were written or created, after
// no further change for debounce. It returns when ctx is done.
func Watch(ctx context.Context, files []string, debounce time.Duration, onChange func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(files))
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Editors replace files on save, so watch the directories.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	var (
		mu       sync.Mutex
		timer    *time.Timer
		modified = map[string]struct{}{}
	)
	flush := func() {
		mu.Lock()
		changed := make([]string, 0, len(modified))
		for f := range modified {
			changed = append(changed, f)
		}
		modified = map[string]struct{}{}
		mu.Unlock()
		slices.Sort(changed)
		if len(changed) > 0 {
			onChange(changed)
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !watched[event.Name] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			mu.Lock()
			modified[event.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, flush)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher: %w", err)

		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil
		}
	}
}
