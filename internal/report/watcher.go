package report

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hotelbooker/pkg/logging"
)

const (
	// DefaultDebounceInterval is the time to wait after the last write to a
	// report before cleaning it.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultWatchInterval is the polling interval used when fsnotify is
	// not available.
	DefaultWatchInterval = 2 * time.Second
)

// WatcherConfig holds configuration for the report watcher.
type WatcherConfig struct {
	Cleaner *Cleaner

	// Debounce defaults to DefaultDebounceInterval.
	Debounce time.Duration

	// WatchInterval is the fallback polling interval.
	WatchInterval time.Duration

	// OnClean is called after each cleaned report, for tests and progress
	// output.
	OnClean func(path string, d Dashboard, err error)
}

// Watcher cleans reports as runs finish writing them. It watches the
// reports root and the date and time directories below it with fsnotify,
// falling back to polling when fsnotify is not available.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	// fsWatcher is nil while polling
	fsWatcher *fsnotify.Watcher

	stopCh  chan struct{}
	running bool

	// cleaned holds the modification time each report had when last
	// cleaned, so the cleaner's own rewrite does not trigger another pass.
	cleaned map[string]time.Time

	debounceMu sync.Mutex
	timers     map[string]*time.Timer
}

// NewWatcher creates a new report watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounceInterval
	}
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	return &Watcher{
		config:  config,
		cleaned: make(map[string]time.Time),
		timers:  make(map[string]*time.Timer),
	}
}

// Start begins watching the cleaner's root directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	root := w.config.Cleaner.Root
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ReportWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}
	w.fsWatcher = watcher

	if err := w.addTree(root); err != nil {
		logging.Warn("ReportWatcher", "Failed to watch %s, falling back to polling: %v", root, err)
		w.fsWatcher.Close()
		w.fsWatcher = nil
		go w.pollForChanges()
		return nil
	}

	go w.processEvents(w.fsWatcher.Events, w.fsWatcher.Errors)

	logging.Info("ReportWatcher", "Watching %s for new reports", root)
	return nil
}

// addTree watches root and its date and time directories. Deeper
// directories such as screenshots are skipped.
func (w *Watcher) addTree(root string) error {
	if err := w.fsWatcher.Add(root); err != nil {
		return err
	}
	dirs, _ := filepath.Glob(filepath.Join(root, "*"))
	runs, _ := filepath.Glob(filepath.Join(root, "*", "*"))
	for _, d := range append(dirs, runs...) {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			if err := w.fsWatcher.Add(d); err != nil {
				logging.Debug("ReportWatcher", "Cannot watch %s: %v", d, err)
			}
		}
	}
	return nil
}

// depth is the number of path elements of p below the root.
func (w *Watcher) depth(p string) int {
	rel, err := filepath.Rel(w.config.Cleaner.Root, p)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("ReportWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// <root>/<date> and <root>/<date>/<time>
			if depth := w.depth(event.Name); depth <= 2 {
				w.watchDir(event.Name)
				if depth == 1 {
					// the run directory may have been created before the
					// date directory was watched
					runs, _ := filepath.Glob(filepath.Join(event.Name, "*"))
					for _, r := range runs {
						if info, err := os.Stat(r); err == nil && info.IsDir() {
							w.watchDir(r)
						}
					}
				}
				w.scheduleExisting(event.Name)
			}
			return
		}
	}

	if filepath.Base(event.Name) != ReportFileName {
		return
	}
	w.cleanDebounced(event.Name)
}

func (w *Watcher) watchDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsWatcher == nil {
		return
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		logging.Warn("ReportWatcher", "Cannot watch %s: %v", dir, err)
	}
}

// scheduleExisting picks up reports written before a new directory was
// being watched.
func (w *Watcher) scheduleExisting(dir string) {
	for _, pattern := range []string{
		filepath.Join(dir, ReportFileName),
		filepath.Join(dir, "*", ReportFileName),
	} {
		matches, _ := filepath.Glob(pattern)
		for _, m := range matches {
			w.cleanDebounced(m)
		}
	}
}

// cleanDebounced cleans path once writes to it have settled.
func (w *Watcher) cleanDebounced(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.config.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.timers, path)
		w.debounceMu.Unlock()

		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if running {
			w.clean(path)
		}
	})
}

func (w *Watcher) clean(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	last, seen := w.cleaned[path]
	w.mu.Unlock()
	if seen && !info.ModTime().After(last) {
		return
	}

	d, err := w.config.Cleaner.CleanFile(path)
	if err != nil {
		logging.Error("ReportWatcher", err, "Failed to clean %s", path)
	}
	if info, statErr := os.Stat(path); statErr == nil {
		w.mu.Lock()
		w.cleaned[path] = info.ModTime()
		w.mu.Unlock()
	}
	if w.config.OnClean != nil {
		w.config.OnClean(path, d, err)
	}
}

// pollForChanges implements fallback polling when fsnotify is not available.
func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	// reports already on disk are not cleaned
	if reports, err := FindReports(w.config.Cleaner.Root); err == nil {
		w.mu.Lock()
		for _, r := range reports {
			if info, err := os.Stat(r); err == nil {
				w.cleaned[r] = info.ModTime()
			}
		}
		w.mu.Unlock()
	}

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			reports, err := FindReports(w.config.Cleaner.Root)
			if err != nil {
				logging.Warn("ReportWatcher", "Failed to list reports: %v", err)
				continue
			}
			for _, r := range reports {
				w.clean(r)
			}
		}
	}
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("ReportWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("ReportWatcher", "Stopped report watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
