// Package watcher reports modifications of the settings file.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/raykavin/autoblacklist/pkg/logger"
)

// Watcher calls onChange whenever the watched file is written or recreated.
// The parent directory is watched so editors that replace the file are still noticed.
type Watcher struct {
	path     string
	onChange func()
	log      logger.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

func New(path string, onChange func(), log logger.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		log:      log.WithField("watch", path),
	}
}

// Start registers the OS watch and begins dispatching events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw != nil {
		return errors.New("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})

	go w.loop(fsw, w.done, w.stopped)

	w.log.Debug("Watching settings file")
	return nil
}

// Stop releases the OS watch and waits for the dispatch goroutine to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw == nil {
		return nil
	}

	close(w.done)
	err := w.fsw.Close()
	<-w.stopped

	w.fsw = nil
	return err
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	for {
		select {
		case <-done:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.log.WithField("op", event.Op.String()).Debug("Settings file modified")
				w.onChange()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("Settings watcher error")
		}
	}
}
