package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ReloadFunc receives a newly loaded config and how it differs from the
// previous one. It runs on the watcher goroutine.
type ReloadFunc func(cfg *Config, diff ConfigDiff)

// Watcher polls a config file and reports effective changes. A revision that
// fails to parse or validate is logged and skipped, so [Watcher.Current]
// always holds the last good config.
type Watcher struct {
	path     string
	interval time.Duration
	getenv   func(string) string
	onReload ReloadFunc

	mu      sync.Mutex
	current *Config
	seen    fileStamp
}

// fileStamp identifies one revision of the file on disk.
type fileStamp struct {
	mtime time.Time
	size  int64
	sum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithEnv replaces os.Getenv for the environment overlay applied to every
// revision.
func WithEnv(getenv func(string) string) WatcherOption {
	return func(w *Watcher) { w.getenv = getenv }
}

// NewWatcher loads the config at path. Polling starts with [Watcher.Run].
// onReload may be nil.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{path: path, interval: 5 * time.Second, getenv: os.Getenv, onReload: onReload}
	for _, opt := range opts {
		opt(w)
	}
	cfg, stamp, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.current, w.seen = cfg, stamp
	return w, nil
}

// Current returns the last valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is cancelled and then returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	tick := time.NewTicker(w.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config: watched file unavailable", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.seen.mtime) && info.Size() == w.seen.size
	w.mu.Unlock()
	if unchanged {
		return
	}

	cfg, stamp, err := w.read()
	if err != nil {
		slog.Warn("config: ignoring invalid revision", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	sameBytes := stamp.sum == w.seen.sum
	w.seen = stamp
	if sameBytes {
		w.mu.Unlock()
		return
	}
	diff := Diff(w.current, cfg)
	w.current = cfg
	w.mu.Unlock()

	if !diff.Changed() {
		slog.Debug("config: file edited without effective change", "path", w.path)
		return
	}
	slog.Info("config: reloaded", "path", w.path, "log_level_changed", diff.LogLevelChanged, "restart_required", diff.RestartRequired)
	if w.onReload != nil {
		w.onReload(cfg, diff)
	}
}

// read loads, overlays and validates one revision of the file.
func (w *Watcher) read() (*Config, fileStamp, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fileStamp{}, err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fileStamp{}, err
	}
	cfg, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fileStamp{}, err
	}
	if cfg, err = build(cfg, w.getenv); err != nil {
		return nil, fileStamp{}, err
	}
	return cfg, fileStamp{mtime: info.ModTime(), size: info.Size(), sum: sha256.Sum256(data)}, nil
}
