package settings

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docbridge/pkg/logging"
)

// DefaultDebounceInterval is the time to wait before triggering a reload
// after the last file change is detected. Editors tend to emit several
// write events for a single save.
const DefaultDebounceInterval = 500 * time.Millisecond

// WatcherConfig holds configuration for the settings watcher.
type WatcherConfig struct {
	// ConfigPath is the directory containing settings.yaml.
	ConfigPath string

	// DebounceInterval overrides the default debounce window. Zero means
	// DefaultDebounceInterval.
	DebounceInterval time.Duration

	// OnChange is called, debounced, when the settings file changes.
	OnChange func()
}

// Watcher monitors the settings file and triggers a single reload per burst
// of file system events. Configuration changes take effect only through the
// restart this triggers; there is no hot in-place reconfiguration.
type Watcher struct {
	mu sync.Mutex

	config    WatcherConfig
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a settings watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.DebounceInterval == 0 {
		config.DebounceInterval = DefaultDebounceInterval
	}
	return &Watcher{config: config}
}

// Start begins watching the config directory for settings changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory rather than the file: editors replace files on
	// save, which would drop a watch on the file itself.
	if err := watcher.Add(w.config.ConfigPath); err != nil {
		watcher.Close()
		return err
	}

	w.fsWatcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.watchLoop(watcher.Events, watcher.Errors, w.stopCh)
	logging.Debug("SettingsWatcher", "Watching %s for changes", w.config.ConfigPath)
	return nil
}

// Stop stops the watcher. Safe to call on a stopped watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopCh)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.running = false
}

func (w *Watcher) watchLoop(events <-chan fsnotify.Event, errors <-chan error, stopCh <-chan struct{}) {
	settingsName := settingsFileName
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != settingsName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleChange()
		case err, ok := <-errors:
			if !ok {
				return
			}
			logging.Warn("SettingsWatcher", "Watch error: %v", err)
		}
	}
}

// scheduleChange debounces rapid successive events into one OnChange call.
func (w *Watcher) scheduleChange() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.DebounceInterval, func() {
		logging.Debug("SettingsWatcher", "Settings changed on disk")
		if w.config.OnChange != nil {
			w.config.OnChange()
		}
	})
}
