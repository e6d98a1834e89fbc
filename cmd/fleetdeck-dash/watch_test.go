package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TestConfigReload verifies that file changes in the config directory trigger
// fsChangeMsg so the dashboard re-reads its settings without a restart.
func TestConfigReload(t *testing.T) {
	dir := t.TempDir()

	watchCmd := watchConfigDir(dir)
	if watchCmd == nil {
		t.Fatal("watchConfigDir returned nil, expected tea.Cmd")
	}

	msgChan := make(chan tea.Msg, 1)
	go func() {
		msgChan <- watchCmd()
	}()

	// Give watcher time to initialize
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`view_mode = "debug"`), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	select {
	case msg := <-msgChan:
		if _, ok := msg.(fsChangeMsg); !ok {
			t.Errorf("expected fsChangeMsg, got %T", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for fsChangeMsg after config change")
	}
}

// TestConfigReloadMissingDir verifies hot reload degrades to nothing when the
// config directory does not exist.
func TestConfigReloadMissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if cmd := watchConfigDir(missing); cmd != nil {
		t.Error("expected nil for nonexistent dir, got cmd")
	}
}

// TestConfigReloadDebounce verifies rapid changes collapse into one message.
func TestConfigReloadDebounce(t *testing.T) {
	dir := t.TempDir()

	watchCmd := watchConfigDir(dir)
	if watchCmd == nil {
		t.Fatal("watchConfigDir returned nil")
	}

	msgChan := make(chan tea.Msg, 10)
	go func() {
		msgChan <- watchCmd()
	}()

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("log_capacity = 100"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	msgCount := 0
	for {
		select {
		case <-msgChan:
			msgCount++
		default:
			goto done
		}
	}
done:
	if msgCount != 1 {
		t.Errorf("expected 1 debounced message, got %d", msgCount)
	}
}

// TestFsChangeTriggersReload verifies the model reacts to fsChangeMsg by
// scheduling a config re-read.
func TestFsChangeTriggersReload(t *testing.T) {
	m, err := newModel(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, cmd := m.Update(fsChangeMsg{})
	if cmd == nil {
		t.Fatal("expected reload command on fsChangeMsg, got nil")
	}
}
