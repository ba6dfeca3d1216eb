package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/til/internal/storage"
)

// ChangeCallback is called once per quiet period after relevant changes.
type ChangeCallback func(ctx context.Context)

// Watch starts an fsnotify watcher on the notes root and calls onChange
// after debounce has elapsed without further relevant events, until ctx
// is cancelled.
//
// Relevant events are writes to "<topic>/<name>.md" files and any activity
// directly inside gitDir, which is how new commits show up. gitDir may lie
// outside root when the notes are a subdirectory of the repository; an
// empty gitDir means root/.git. Topic directories created at runtime are
// added to the watch list.
func Watch(ctx context.Context, root, gitDir string, debounce time.Duration, logger *slog.Logger, onChange ChangeCallback) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if gitDir == "" {
		gitDir = filepath.Join(root, ".git")
	}
	if gitDir, err = filepath.Abs(gitDir); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	if info, statErr := os.Stat(gitDir); statErr == nil && info.IsDir() {
		if err := w.Add(gitDir); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("root", root), slog.String("git_dir", gitDir))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			onChange(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Dir(ev.Name) == gitDir {
				schedule()
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					schedule()
					continue
				}
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || !storage.IsNotePath(rel) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: note changed", slog.String("path", filepath.ToSlash(rel)), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and its subdirectories to the watcher,
// skipping hidden directories such as .git.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
