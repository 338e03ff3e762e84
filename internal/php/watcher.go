package php

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

const watchDebounce = 200 * time.Millisecond

// Watch keeps the index in sync with the PHP files below root until ctx is done.
// onUpdate is called after every batch of changes has been applied.
func (idx *Index) Watch(ctx context.Context, root string, excludes []glob.Glob, onUpdate func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirectoriesToWatcher(watcher, root, excludes); err != nil {
		return err
	}

	parser, err := NewParser()
	if err != nil {
		return err
	}
	defer parser.Close()

	pendingAdds := make(map[string]bool)
	pendingRemoves := make(map[string]bool)
	debounceTimer := time.NewTimer(time.Hour)
	debounceTimer.Stop()

	resetTimer := func() {
		if !debounceTimer.Stop() {
			select {
			case <-debounceTimer.C:
			default:
			}
		}
		debounceTimer.Reset(watchDebounce)
	}

	processChanges := func() {
		var changed []string
		for path := range pendingAdds {
			if err := idx.indexFile(parser, path); err != nil {
				log.Warningf("failed to reindex %s: %v", path, err)
				continue
			}
			changed = append(changed, path)
		}
		for path := range pendingRemoves {
			idx.RemoveFile(path)
			if idx.store != nil {
				if err := idx.store.Delete(path); err != nil {
					log.Warningf("failed to delete declarations of %s: %v", path, err)
				}
			}
			changed = append(changed, path)
		}
		pendingAdds = make(map[string]bool)
		pendingRemoves = make(map[string]bool)

		if len(changed) > 0 && onUpdate != nil {
			onUpdate(changed)
		}
	}

	for {
		select {
		case <-ctx.Done():
			processChanges()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			relPath, err := filepath.Rel(root, event.Name)
			if err == nil && excluded(excludes, filepath.ToSlash(relPath)) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && isPHPFile(event.Name) {
					pendingRemoves[event.Name] = true
					delete(pendingAdds, event.Name)
					resetTimer()
				}
				continue
			}

			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					if err := addDirectoriesToWatcher(watcher, event.Name, nil); err != nil {
						log.Warningf("failed to watch %s: %v", event.Name, err)
					}
				}
				continue
			}

			if !isPHPFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				log.Debugf("file changed: %s", event.Name)
				pendingAdds[event.Name] = true
				delete(pendingRemoves, event.Name)
				resetTimer()
			} else if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Debugf("file removed: %s", event.Name)
				pendingRemoves[event.Name] = true
				delete(pendingAdds, event.Name)
				resetTimer()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warningf("file watcher error: %v", err)

		case <-debounceTimer.C:
			processChanges()
		}
	}
}

func addDirectoriesToWatcher(watcher *fsnotify.Watcher, root string, excludes []glob.Glob) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		if path != root {
			relPath, relErr := filepath.Rel(root, path)
			if relErr == nil && excluded(excludes, filepath.ToSlash(relPath)+"/") || defaultSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
		}

		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
