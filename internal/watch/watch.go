// Package watch notices edits to a project's Vagrantfile
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the file has to stay quiet before a change fires
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls a function whenever one file changes. The parent directory
// is watched rather than the file itself, so editors that replace the file
// on save are still noticed.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New starts watching path. onChange runs on the watcher goroutine once
// per burst of events.
func New(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		if cerr := fsw.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("Failed to close watcher after add error")
		}
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		watcher:  fsw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()

	log.Debug().Str("path", abs).Msg("Vagrantfile watcher started")
	return w, nil
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) loop() {
	defer close(w.done)

	debounceTimer := time.NewTimer(w.debounce)
	defer debounceTimer.Stop()
	pending := false

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = true
				debounceTimer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Str("path", w.path).Msg("File watcher error")

		case <-debounceTimer.C:
			if pending {
				pending = false
				log.Info().Str("path", w.path).Msg("Vagrantfile changed")
				w.onChange()
			}
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}
