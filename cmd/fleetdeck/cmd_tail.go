package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"fleetdeck/internal/config"
	"fleetdeck/pkg/stream"
	"fleetdeck/pkg/telemetry"
	"fleetdeck/pkg/view"
)

// newTailCmd creates the "fleetdeck tail" subcommand: a non-interactive feed
// of the telemetry stream. On a TTY it prints formatted lines; when piped it
// emits line-delimited JSON envelopes for tooling.
func newTailCmd() *cobra.Command {
	var url string
	var replayPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream telemetry events to stdout",
		Long:  "Connects to the orchestrator's telemetry stream and prints events as they arrive.\nUse --replay to read a recorded stream from a file instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Path())
			if err != nil {
				return err
			}
			if url != "" {
				cfg.ServerURL = url
			}

			mode := view.ModeUser
			if debug {
				mode = view.ModeDebug
			}
			pretty := isatty.IsTerminal(os.Stdout.Fd())
			projector := view.NewProjector(hiddenEventTypes(cfg))

			emit := func(env telemetry.Envelope) {
				printEnvelope(projector, env, mode, pretty)
			}

			if replayPath != "" {
				f, err := os.Open(replayPath) //nolint:gosec // user-supplied replay file
				if err != nil {
					return fmt.Errorf("open replay file: %w", err)
				}
				defer f.Close() //nolint:errcheck // read-only file
				return stream.Replay(f, emit)
			}

			client, err := stream.New(stream.Options{
				URL:        cfg.ServerURL,
				OnEnvelope: emit,
				Quiet:      !pretty,
			})
			if err != nil {
				return err
			}
			return client.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "telemetry websocket URL (overrides config)")
	cmd.Flags().StringVar(&replayPath, "replay", "", "read a recorded stream from this file instead of connecting")
	cmd.Flags().BoolVar(&debug, "debug", false, "show every event, including internal telemetry")

	return cmd
}

// hiddenEventTypes converts the config's extra hidden events.
func hiddenEventTypes(cfg config.Config) []telemetry.EventType {
	out := make([]telemetry.EventType, 0, len(cfg.HiddenEvents))
	for _, e := range cfg.HiddenEvents {
		out = append(out, telemetry.EventType(e))
	}
	return out
}

// printEnvelope writes one envelope to stdout in the requested shape.
func printEnvelope(p *view.Projector, env telemetry.Envelope, mode view.Mode, pretty bool) {
	if !pretty {
		line := map[string]string{
			"agent":     string(env.Agent),
			"event":     string(env.Event),
			"message":   env.Message,
			"timestamp": env.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		}
		data, err := json.Marshal(line)
		if err != nil {
			return
		}
		fmt.Println(string(data))
		return
	}

	lines := p.Project([]telemetry.Envelope{env}, mode)
	for _, l := range lines {
		summary := l.Summary
		if summary == "" {
			summary = l.Detail
		}
		fmt.Printf("%s %s %-12s %s — %s\n", l.Time, l.Icon, l.Agent, l.Title, summary)
	}
}
