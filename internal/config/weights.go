package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"fnol/internal/logging"
)

// WeightStore holds per-playbook detection weight overrides loaded from a
// YAML file. Playbooks look up each scoring signal through Weight; a signal
// with no override keeps its built-in default. The file can be hot-reloaded
// so tuning a scenario's sensitivity does not require a restart.
type WeightStore struct {
	mu      sync.RWMutex
	path    string
	weights map[string]map[string]float64 // playbook ID -> signal -> weight

	watcher     *fsnotify.Watcher
	debounceAt  time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// weightFile is the on-disk shape: playbooks keyed by ID, each mapping
// signal names to weights.
type weightFile struct {
	Playbooks map[string]map[string]float64 `yaml:"playbooks"`
}

// NewWeightStore creates a store backed by the given file. A missing file is
// fine; all signals fall back to their defaults until the file appears.
func NewWeightStore(path string) *WeightStore {
	ws := &WeightStore{
		path:        path,
		weights:     map[string]map[string]float64{},
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	if err := ws.Reload(); err != nil {
		logging.Config("weight file %s not loaded: %v", path, err)
	}
	return ws
}

// Weight returns the configured weight for a playbook's scoring signal, or
// def when no override exists.
func (ws *WeightStore) Weight(playbookID, signal string, def float64) float64 {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if signals, ok := ws.weights[playbookID]; ok {
		if w, ok := signals[signal]; ok {
			return w
		}
	}
	return def
}

// Reload re-reads the weight file from disk.
func (ws *WeightStore) Reload() error {
	data, err := os.ReadFile(ws.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read weight file: %w", err)
	}

	var wf weightFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return fmt.Errorf("failed to parse weight file: %w", err)
	}

	ws.mu.Lock()
	ws.weights = wf.Playbooks
	if ws.weights == nil {
		ws.weights = map[string]map[string]float64{}
	}
	count := len(ws.weights)
	ws.mu.Unlock()

	logging.Config("weight table reloaded from %s (%d playbooks overridden)", ws.path, count)
	return nil
}

// Watch starts watching the weight file's directory and reloads the table
// when the file changes. Non-blocking; call Stop to end the watch.
func (ws *WeightStore) Watch(ctx context.Context) error {
	ws.mu.Lock()
	if ws.running {
		ws.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		ws.mu.Unlock()
		return err
	}
	ws.watcher = watcher
	ws.running = true
	ws.mu.Unlock()

	// Watch the directory, not the file: editors replace files on save and
	// a file watch would be lost after the first rename.
	dir := filepath.Dir(ws.path)
	if err := watcher.Add(dir); err != nil {
		logging.Config("weight watch failed for %s: %v", dir, err)
	}

	go ws.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (ws *WeightStore) Stop() {
	ws.mu.Lock()
	if !ws.running {
		ws.mu.Unlock()
		return
	}
	ws.running = false
	ws.mu.Unlock()

	close(ws.stopCh)
	<-ws.doneCh
	_ = ws.watcher.Close()
}

func (ws *WeightStore) run(ctx context.Context) {
	defer close(ws.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ws.stopCh:
			return
		case event, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(ws.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			ws.mu.Lock()
			ws.debounceAt = time.Now()
			ws.mu.Unlock()
		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			logging.Config("weight watcher error: %v", err)
		case <-ticker.C:
			ws.mu.Lock()
			pending := !ws.debounceAt.IsZero() && time.Since(ws.debounceAt) >= ws.debounceDur
			if pending {
				ws.debounceAt = time.Time{}
			}
			ws.mu.Unlock()
			if pending {
				if err := ws.Reload(); err != nil {
					logging.Config("weight reload failed: %v", err)
				}
			}
		}
	}
}
