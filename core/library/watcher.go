package library

import (
	"os"
	"path/filepath"

	"Shelfwave/logger"
	"Shelfwave/repository"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the catalog's missing flags in step with the filesystem. A
// file vanishing under the media directory marks its item missing, so a
// later restore skips it instead of loading a dead path; the file coming
// back clears the flag.
type Watcher struct {
	repo    repository.LibraryRepository
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher over the media directory tree.
func NewWatcher(repo repository.LibraryRepository, mediaDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch every subdirectory; fsnotify is not recursive.
	err = filepath.Walk(mediaDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		repo:    repo,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
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
			logger.Warn("media watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := w.repo.SetMissingByFilePath(event.Name, true); err != nil {
			logger.Warn("failed to mark item missing",
				logger.String("path", event.Name),
				logger.ErrorField(err))
		}

	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				logger.Warn("failed to watch new directory",
					logger.String("path", event.Name),
					logger.ErrorField(err))
			}
			return
		}
		if err := w.repo.SetMissingByFilePath(event.Name, false); err != nil {
			logger.Warn("failed to clear missing flag",
				logger.String("path", event.Name),
				logger.ErrorField(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
