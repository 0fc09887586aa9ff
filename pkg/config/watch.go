package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher returns a watcher for path. A nil logger discards.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		logger:   logger.With("component", "config"),
	}
}

// SetDebounce changes the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches the file's directory, so atomic renames by editors are
// seen, and calls onChange with each config that loads and validates.
// Broken edits are logged and skipped. Run returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !relevant(ev.Op) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", "error", err)

		case <-pending:
			pending = nil
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				w.logger.Warn("config reload rejected", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			onChange(cfg)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
