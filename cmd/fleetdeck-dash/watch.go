package main

import (
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"fleetdeck/internal/config"
)

// fsChangeMsg is sent when a change is detected in the config directory.
type fsChangeMsg struct{}

// configReloadedMsg carries a freshly re-read config after an fs change.
type configReloadedMsg config.Config

// watchConfigDir creates a file system watcher for the config directory.
// Returns nil if the directory doesn't exist or watcher creation fails
// (the dashboard keeps the config it started with).
func watchConfigDir(dir string) tea.Cmd {
	watcher := initWatcher(dir)
	if watcher == nil {
		return nil
	}
	return runWatcher(watcher)
}

// initWatcher creates and initializes a file system watcher for the given directory.
// Returns nil if initialization fails.
func initWatcher(dir string) *fsnotify.Watcher {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (config hot reload disabled)", err)
		return nil
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close() // Best effort close
		log.Printf("fsnotify: failed to watch %s: %v (config hot reload disabled)", dir, err)
		return nil
	}

	return watcher
}

// runWatcher returns a tea.Cmd that monitors file system events and returns
// fsChangeMsg once changes settle (debounced to avoid thundering herd).
func runWatcher(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		defer watcher.Close() //nolint:errcheck // watcher is done either way

		debounceTimer := newDebounceTimer()
		defer debounceTimer.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				_ = event // Acknowledge event received
				resetDebounceTimer(debounceTimer)

			case <-debounceTimer.C:
				return fsChangeMsg{}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("fsnotify: watcher error: %v", err)
				return nil
			}
		}
	}
}

// reloadConfigCmd re-reads the config file after a change notification.
// A config that fails validation is dropped; the running settings stay.
func reloadConfigCmd() tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load(config.Path())
		if err != nil {
			log.Printf("config reload: %v (keeping current settings)", err)
			return nil
		}
		return configReloadedMsg(cfg)
	}
}

// newDebounceTimer creates a new timer for debouncing file system events.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

// resetDebounceTimer resets the debounce timer to prevent rapid-fire events.
func resetDebounceTimer(timer *time.Timer) {
	const debounceDuration = 100 * time.Millisecond
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounceDuration)
}
