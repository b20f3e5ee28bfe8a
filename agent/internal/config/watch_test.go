package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("agent: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid file must not reach onChange.
	if err := os.WriteFile(path, []byte("agent:\n  log_level: loud\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(3 * reloadDelay)
	if err := os.WriteFile(path, []byte("agent:\n  log_level: debug\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	for {
		select {
		case c := <-got:
			if c.Agent.LogLevel == "debug" {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("Watch returned error: %v", err)
				}
				return
			}
			if c.Agent.LogLevel == "loud" {
				t.Fatal("invalid config was delivered to onChange")
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {})
	if err == nil {
		t.Fatal("expected error watching a missing file, got nil")
	}
}

func TestWatch_AtomicRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(path, []byte("agent: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *Config, 4)
	go Watch(ctx, path, func(c *Config) { got <- c }) //nolint:errcheck
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(dir, "agent.yaml.tmp")
	if err := os.WriteFile(tmp, []byte("agent:\n  schedule:\n    interval: 1h\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case c := <-got:
		if c.Agent.Schedule.Interval != time.Hour {
			t.Errorf("interval: got %v, want 1h", c.Agent.Schedule.Interval)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload after rename")
	}
}

func TestWatch_SameContentIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	body := []byte("agent:\n  log_level: warn\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	go Watch(ctx, path, func(c *Config) { got <- c }) //nolint:errcheck
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-got:
		t.Error("onChange called for unchanged content")
	case <-time.After(5 * reloadDelay):
	}
}
