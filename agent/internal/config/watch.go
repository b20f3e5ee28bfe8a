package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events a single save produces.
const reloadDelay = 100 * time.Millisecond

// Watch calls onChange with the newly parsed Config whenever the file at path
// changes content. It watches the containing directory, so saves that replace
// the file by rename are seen too. It runs until ctx is cancelled.
//
// A reload that fails validation is logged and skipped; the previous config
// stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	last, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	target := filepath.Clean(path)

	slog.Info("config: watching for changes", "path", path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(reloadDelay)

		case <-pending:
			pending = nil
			data, err := os.ReadFile(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config", "path", path, "err", err)
				continue
			}
			if bytes.Equal(data, last) {
				continue
			}
			last = data

			cfg, err := Parse(data)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config", "path", path, "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", path)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
