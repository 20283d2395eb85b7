package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Overrides are the runtime-changeable values. Cache TTLs can be tightened
// or relaxed without a restart; nil fields mean "leave as configured".
type Overrides struct {
	PlacesTTLSeconds *int  `json:"placesTtlSeconds"`
	RoutesTTLSeconds *int  `json:"routesTtlSeconds"`
	BreakerEnabled   *bool `json:"breakerEnabled"`
}

// PlacesTTL returns the override as a duration, or 0 when unset.
func (o *Overrides) PlacesTTL() time.Duration {
	if o == nil || o.PlacesTTLSeconds == nil || *o.PlacesTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(*o.PlacesTTLSeconds) * time.Second
}

// RoutesTTL returns the override as a duration, or 0 when unset.
func (o *Overrides) RoutesTTL() time.Duration {
	if o == nil || o.RoutesTTLSeconds == nil || *o.RoutesTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(*o.RoutesTTLSeconds) * time.Second
}

// Watcher watches the overrides file and notifies subscribers on change.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu       sync.RWMutex
	current  *Overrides
	onChange []func(*Overrides)

	stopCh chan struct{}
	once   sync.Once
}

// NewWatcher creates a watcher for the overrides file. The file may not
// exist yet; its directory is watched so a later create is picked up.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	// Initial load is best effort; a missing file just means defaults.
	w.reload()

	go w.run()
	return w, nil
}

// OnChange registers a callback invoked with every successfully reloaded
// override set, including the initial load if a file was present.
func (w *Watcher) OnChange(fn func(*Overrides)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	current := w.current
	w.mu.Unlock()

	if current != nil {
		fn(current)
	}
}

// Current returns the last loaded overrides, which may be nil.
func (w *Watcher) Current() *Overrides {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Info("overrides file changed, reloading", zap.String("path", w.path))
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("overrides watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("reading overrides file", zap.Error(err))
		}
		return
	}

	var overrides Overrides
	if err := json.Unmarshal(raw, &overrides); err != nil {
		// A malformed file keeps the previous overrides in force.
		w.logger.Warn("parsing overrides file", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = &overrides
	callbacks := make([]func(*Overrides), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(&overrides)
	}
}
