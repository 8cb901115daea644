package builder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/leeforge/assetpipe/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before rebuilding.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc is called once per settled burst of changes.
type RebuildFunc func(ctx context.Context) error

type watchConfig struct {
	log    logging.Logger
	ignore []string
}

// WatchOption customises Watch.
type WatchOption func(*watchConfig)

// WithWatchLogger sets the logger used for events and rebuild failures.
func WithWatchLogger(l logging.Logger) WatchOption {
	return func(c *watchConfig) { c.log = l }
}

// WithIgnore drops events below any of dirs. Use it when the output
// directory lives inside the source tree.
func WithIgnore(dirs ...string) WatchOption {
	return func(c *watchConfig) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				c.ignore = append(c.ignore, abs)
			}
		}
	}
}

// Watch calls rebuild whenever files under dir change, until ctx is done.
// Rebuilds never overlap; a failed rebuild is logged and watching goes on.
func Watch(ctx context.Context, dir string, debounce time.Duration, rebuild RebuildFunc, opts ...WatchOption) error {
	cfg := watchConfig{log: logging.Global()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := cfg.addTree(fsWatcher, dir); err != nil {
		return err
	}
	cfg.log.Info("watching for changes", logging.Path(dir))

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if cfg.skip(event.Name) {
				continue
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := cfg.addTree(fsWatcher, event.Name); err != nil {
						cfg.log.Warn("failed to watch new directory", logging.Path(event.Name), zap.Error(err))
					}
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			cfg.log.Debug("source changed", logging.Path(event.Name), zap.String("op", event.Op.String()))

			// Debounce: restart the timer on every event
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			cfg.log.Info("rebuilding")
			if err := rebuild(ctx); err != nil {
				cfg.log.Error("rebuild failed", zap.Error(err))
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			cfg.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (c *watchConfig) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (strings.HasPrefix(d.Name(), ".") || c.skip(p)) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", p, err)
		}
		return nil
	})
}

// skip reports hidden names and paths below an ignored directory.
func (c *watchConfig) skip(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return true
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, dir := range c.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
