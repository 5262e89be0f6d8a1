package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/watcher"
)

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.yaml")
	err := os.WriteFile(statePath, []byte("count: 0\n"), 0644)
	require.NoError(t, err, "failed to create state file")

	w, err := watcher.New(watcher.Config{
		StatePath:   statePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Rapid writes should coalesce into a single notification
	for i := 0; i < 10; i++ {
		err := os.WriteFile(statePath, []byte(fmt.Sprintf("count: %d\n", i)), 0644)
		require.NoError(t, err, "failed to write file")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
		// Expected
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	// No second notification should come quickly
	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
		// Expected - no second notification
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.yaml")
	otherPath := filepath.Join(dir, "other.txt")
	err := os.WriteFile(statePath, []byte("count: 0\n"), 0644)
	require.NoError(t, err, "failed to create state file")
	// Pre-create the other file so writes to it are just Write events
	err = os.WriteFile(otherPath, []byte("initial"), 0644)
	require.NoError(t, err, "failed to create other file")

	w, err := watcher.New(watcher.Config{
		StatePath:   statePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	err = os.WriteFile(otherPath, []byte("other content"), 0644)
	require.NoError(t, err, "failed to write other file")

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(100 * time.Millisecond):
		// Expected - no notification for unrelated file
	}
}

func TestWatcher_AtomicRenameTriggersReload(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.yaml")
	err := os.WriteFile(statePath, []byte("count: 0\n"), 0644)
	require.NoError(t, err, "failed to create state file")

	w, err := watcher.New(watcher.Config{
		StatePath:   statePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Editors and atomic saves replace the file via rename.
	tempPath := filepath.Join(dir, ".state.yaml.tmp")
	err = os.WriteFile(tempPath, []byte("count: 1\n"), 0644)
	require.NoError(t, err, "failed to write temp file")
	require.NoError(t, os.Rename(tempPath, statePath))

	select {
	case <-onChange:
		// Expected - the rename lands on the watched name
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected notification for atomic replace")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.yaml")
	err := os.WriteFile(statePath, []byte("count: 0\n"), 0644)
	require.NoError(t, err, "failed to create state file")

	w, err := watcher.New(watcher.Config{
		StatePath:   statePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")

	_, err = w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Stop should not hang or panic
	done := make(chan struct{})
	go func() {
		err := w.Stop()
		assert.NoError(t, err, "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
		// Expected - stop completed successfully
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	statePath := "/test/state.yaml"
	cfg := watcher.DefaultConfig(statePath)

	assert.Equal(t, statePath, cfg.StatePath)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDur)
}
