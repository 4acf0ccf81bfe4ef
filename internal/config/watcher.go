package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is invoked when the config file changes. cfg is the newly
// parsed config (nil on parse failure) and errs holds parse or validation
// errors. Callers keep their last known good config when cfg is nil.
type ReloadCallback func(cfg *Config, errs []error)

// Watcher monitors the gateway config file and reloads it on change, so a
// proxy-target edit takes effect without restarting the dev server.
type Watcher struct {
	path     string
	debounce time.Duration
	callback ReloadCallback
	logger   *slog.Logger
}

// NewWatcher creates a config file watcher. debounce <= 0 defaults to one
// second, which absorbs the multi-event bursts editors produce on save.
func NewWatcher(path string, debounce time.Duration, callback ReloadCallback, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		callback: callback,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, reloading the config file on every
// debounced write/create/rename event. The parent directory is watched
// rather than the file itself so atomic-write editors (vim, VS Code) are
// still seen after they replace the file.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	fileName := filepath.Base(w.path)
	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			cfg, errs := Load(w.path)
			w.callback(cfg, errs)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}
