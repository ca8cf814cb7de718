package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/partforge/internal/settings"
)

// Watch runs a full export, then re-runs it whenever a tree file changes
// until ctx is done. Export errors are logged and watching continues, except
// for settings aborts which end the watch.
func (a *App) Watch(ctx context.Context) error {
	logger := a.logger

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs, err := a.watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	rerun := func() error {
		err := a.Run(ctx)
		switch {
		case err == nil, errors.Is(err, ErrFailures):
		case ctx.Err() != nil:
			return nil
		case settings.IsFatal(err):
			return err
		default:
			logger.Error("Export failed.", "error", err)
		}
		logger.Info("Watching for changes.", "directories", len(dirs))
		return nil
	}
	if err := rerun(); err != nil {
		return err
	}

	// Runs happen on this goroutine so two exports never overlap.
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, isTree := a.loaderFor(event.Name); !isTree {
				continue
			}
			logger.Debug("Tree file changed.", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(a.cfg.Debounce)
			} else {
				timer.Reset(a.cfg.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := rerun(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)
		}
	}
}

// watchDirs lists the directories holding the tree: every directory under a
// directory argument, and the parent of each file argument.
func (a *App) watchDirs() ([]string, error) {
	var dirs []string
	seen := make(map[string]struct{})
	add := func(dir string) {
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	for _, path := range a.cfg.TreePaths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(filepath.Dir(filepath.Clean(path)))
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return dirs, nil
}
