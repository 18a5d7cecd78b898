package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// watchDebounce coalesces the burst of filesystem events editors emit for a
// single save.
const watchDebounce = 250 * time.Millisecond

// Watcher reloads the configuration when the config file changes on disk
// and hands the validated result to a callback. Invalid edits are reported
// through onError and the previous configuration stays in effect.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*Config)
	onError  func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the given config file. onError may be nil.
func NewWatcher(path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the file's directory (fsnotify works better with directories,
	// and survives editors that replace the file on save).
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		path:     path,
		onChange: onChange,
		onError:  onError,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for config changes.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

// watchLoop processes filesystem events for the config file.
func (w *Watcher) watchLoop() {
	targetFile := filepath.Base(w.path)
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != targetFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(fmt.Errorf("config watch error: %w", err))
		}
	}
}

// reload re-reads and validates the config file, invoking the callback on
// success.
func (w *Watcher) reload() {
	if err := viper.ReadInConfig(); err != nil {
		w.reportError(fmt.Errorf("config reload rejected: %w", err))
		return
	}
	cfg, err := Load()
	if err != nil {
		w.reportError(fmt.Errorf("config reload rejected: %w", err))
		return
	}
	w.onChange(cfg)
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
