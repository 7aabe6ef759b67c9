// Package services: services/roster_watcher.go
package services

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"go-asistencia/logger"
)

// reloadDebounce absorbs editors that emit several filesystem events per
// save; reloads closer together than this are collapsed into one.
const reloadDebounce = time.Second

// RosterWatcher observes the roster's backing file and triggers a reload
// when it changes out-of-band. If the notification mechanism is
// unavailable the watcher stays disabled and the manual-reload endpoint
// remains the fallback path; startup is never blocked.
type RosterWatcher struct {
	path    string
	roster  RosterServiceInterface
	metrics *MetricsService

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRosterWatcher creates a watcher for the roster file at path.
func NewRosterWatcher(path string, roster RosterServiceInterface, metrics *MetricsService) *RosterWatcher {
	return &RosterWatcher{path: path, roster: roster, metrics: metrics}
}

// Start opens the filesystem watch and launches the background loop. It
// returns an error when file notification is unavailable; the caller logs
// it and continues without the watcher.
func (w *RosterWatcher) Start() error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	w.path = abs

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// watch the directory: editors replace files on save, which would drop
	// a watch registered on the file itself
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop()

	logger.Info.Printf("Roster watcher started for %s", w.path)
	return nil
}

// Stop terminates the background loop and releases the watch.
func (w *RosterWatcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.done)
	_ = w.watcher.Close()
	w.watcher = nil
}

// loop consumes filesystem events until Stop is called.
func (w *RosterWatcher) loop() {
	var lastReload time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if time.Since(lastReload) < reloadDebounce {
				continue
			}
			lastReload = time.Now()

			logger.Info.Printf("Detected change in %s, reloading roster", filepath.Base(w.path))
			if err := w.roster.Reload(); err != nil {
				// previous roster stays in place on a failed reload
				logger.Warn.Printf("Roster reload failed: %v", err)
				continue
			}
			w.metrics.PublishRosterSize(w.roster.Count())

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn.Printf("Roster watcher error: %v", err)
		}
	}
}
