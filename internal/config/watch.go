package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts into one reload.
const DefaultDebounce = 200 * time.Millisecond

// ErrConfigRemoved reports that the watched file was deleted.
var ErrConfigRemoved = errors.New("config file removed")

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	logger   *log.Logger
	onError  func(error)
	ready    func()
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger *log.Logger) WatchOption {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWatchErrorHandler receives reload and watcher errors.
func WithWatchErrorHandler(fn func(error)) WatchOption {
	return func(o *watchOptions) {
		o.onError = fn
	}
}

// Watch reloads path over defaults after each change and hands valid configs to
// onChange. Invalid files are reported and skipped. It blocks until ctx is done.
func Watch(ctx context.Context, path string, defaults Config, onChange func(Config), opts ...WatchOption) error {
	o := watchOptions{
		debounce: DefaultDebounce,
		logger:   log.New(io.Discard),
		onError:  func(error) {},
		ready:    func() {},
	}
	for _, opt := range opts {
		opt(&o)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer fsw.Close()
	// The directory is watched so atomic rename-on-save keeps working.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	o.logger.Debug("watching config", "path", absPath)
	o.ready()

	target := filepath.Base(absPath)
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				o.onError(ErrConfigRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				fire = time.After(o.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			o.onError(err)

		case <-fire:
			fire = nil
			cfg, err := Load(absPath, defaults)
			if err != nil {
				o.logger.Warn("config reload failed", "path", absPath, "err", err)
				o.onError(err)
				continue
			}
			o.logger.Info("config reloaded", "path", absPath)
			onChange(cfg)
		}
	}
}
