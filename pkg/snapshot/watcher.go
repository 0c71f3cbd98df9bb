package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatcherConfig holds configuration for a Watcher
type WatcherConfig struct {
	Dir      string
	Debounce time.Duration
	// OnChange receives the last changed snapshot path once a burst of events settles
	OnChange func(path string)
	Logger   zerolog.Logger
}

// Watcher reports changes to snapshot files under a directory tree
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(path string)
	logger   zerolog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	lastPath string

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher. Call Start to begin delivering events.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, errors.New("watcher callback is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher:  watcher,
		dir:      cfg.Dir,
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   cfg.Logger.With().Str("component", "watcher").Logger(),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the directory and every subdirectory
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.wg.Add(1)
	go w.eventLoop()

	w.logger.Info().Str("dir", w.dir).Msg("Snapshot watcher started")
	return nil
}

// Stop stops the watcher and waits for its event loop and any running
// OnChange callback to return
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		close(w.done)
		if w.timer != nil && w.timer.Stop() {
			w.wg.Done()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()
		w.logger.Info().Msg("Snapshot watcher stopped")
	})
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
			}
			return
		}
	}

	if _, ok := FormatFromPath(event.Name); !ok {
		return
	}
	if filepath.Base(event.Name)[0] == '.' {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	w.lastPath = event.Name
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	// Each scheduled fire holds a wg slot until it returns or is stopped.
	w.wg.Add(1)
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	defer w.wg.Done()

	select {
	case <-w.done:
		return
	default:
	}

	w.mu.Lock()
	path := w.lastPath
	w.mu.Unlock()

	w.onChange(path)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch directory")
		}
		return nil
	})
}
