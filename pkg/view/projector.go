// Package view derives the activity feed's presentation modes from a rolling
// log snapshot. Projection is a pure, read-only function: it never mutates
// the buffer or the agent state store, and recomputing it on an unchanged
// snapshot yields identical output.
package view

import (
	"fmt"

	"fleetdeck/pkg/telemetry"
)

// Mode selects how much of the stream the feed shows.
type Mode string

const (
	// ModeUser hides internal telemetry and formats the rest for humans.
	ModeUser Mode = "user"
	// ModeDebug shows every buffered envelope raw.
	ModeDebug Mode = "debug"
)

// hiddenEvents are telemetry-only types excluded from the user view.
var hiddenEvents = map[telemetry.EventType]bool{
	telemetry.EventWorkerStatus: true,
	telemetry.EventTokenMetrics: true,
	telemetry.EventHeartbeat:    true,
	"Status":                    true,
	"Iteration":                 true,
}

// DisplayLine is one rendered feed entry.
type DisplayLine struct {
	Agent   telemetry.AgentID
	Event   telemetry.EventType
	Icon    string
	Title   string
	Summary string
	Detail  string
	Time    string
}

// Projector turns log snapshots into display lines. Extra hidden event types
// (from config) extend the static set.
type Projector struct {
	hidden map[telemetry.EventType]bool
}

// NewProjector creates a Projector hiding the static set plus extra types.
func NewProjector(extraHidden []telemetry.EventType) *Projector {
	hidden := make(map[telemetry.EventType]bool, len(hiddenEvents)+len(extraHidden))
	for k := range hiddenEvents {
		hidden[k] = true
	}
	for _, e := range extraHidden {
		hidden[e] = true
	}
	return &Projector{hidden: hidden}
}

// Project renders envs (oldest first) for the given mode.
func (p *Projector) Project(envs []telemetry.Envelope, mode Mode) []DisplayLine {
	lines := make([]DisplayLine, 0, len(envs))
	for _, env := range envs {
		if mode == ModeUser && p.hidden[env.Event] {
			continue
		}

		line := DisplayLine{
			Agent: env.Agent,
			Event: env.Event,
			Time:  env.Timestamp.Format("15:04:05"),
		}
		if mode == ModeDebug {
			line.Icon = "·"
			line.Title = fmt.Sprintf("[%s] %s", env.Agent, env.Event)
			line.Detail = env.Message
		} else {
			format(env, &line)
		}
		lines = append(lines, line)
	}
	return lines
}
