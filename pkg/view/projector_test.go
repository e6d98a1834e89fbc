package view_test

import (
	"reflect"
	"testing"
	"time"

	"fleetdeck/pkg/telemetry"
	"fleetdeck/pkg/view"
)

func envelope(agent telemetry.AgentID, event telemetry.EventType, message string) telemetry.Envelope {
	return telemetry.Envelope{
		Agent:     agent,
		Event:     event,
		Message:   message,
		Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestProject_UserModeHidesInternalEvents(t *testing.T) {
	p := view.NewProjector(nil)
	envs := []telemetry.Envelope{
		envelope(telemetry.AgentCoder, telemetry.EventCodeOutput, `{"files":["a.go"],"iteration":1,"maxIterations":3}`),
		envelope(telemetry.AgentSystem, telemetry.EventWorkerStatus, `{"office":"coder office"}`),
		envelope(telemetry.AgentCoder, telemetry.EventTokenMetrics, `{"total_tokens":50}`),
		envelope(telemetry.AgentCoder, telemetry.EventHeartbeat, `{}`),
	}

	lines := p.Project(envs, view.ModeUser)
	if len(lines) != 1 {
		t.Fatalf("expected only the code output line, got %d lines", len(lines))
	}
	if lines[0].Event != telemetry.EventCodeOutput {
		t.Fatalf("expected CodeOutput, got %q", lines[0].Event)
	}
}

func TestProject_DebugModeShowsEverythingRaw(t *testing.T) {
	p := view.NewProjector(nil)
	envs := []telemetry.Envelope{
		envelope(telemetry.AgentCoder, telemetry.EventCodeOutput, `{"files":[]}`),
		envelope(telemetry.AgentSystem, telemetry.EventWorkerStatus, `{"office":"coder office"}`),
		envelope(telemetry.AgentCoder, telemetry.EventHeartbeat, `{}`),
	}

	lines := p.Project(envs, view.ModeDebug)
	if len(lines) != 3 {
		t.Fatalf("expected all 3 envelopes in debug mode, got %d", len(lines))
	}
	for _, l := range lines {
		if l.Detail == "" {
			t.Fatalf("expected raw message in debug detail for %s", l.Event)
		}
	}
}

func TestProject_IsIdempotent(t *testing.T) {
	p := view.NewProjector(nil)
	envs := []telemetry.Envelope{
		envelope(telemetry.AgentCoder, telemetry.EventCodeOutput, `{"files":["a.go"]}`),
		envelope(telemetry.AgentReviewer, telemetry.EventReviewOutput, `{"approved":true}`),
	}

	first := p.Project(envs, view.ModeUser)
	second := p.Project(envs, view.ModeUser)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestProject_ExtraHiddenEvents(t *testing.T) {
	p := view.NewProjector([]telemetry.EventType{telemetry.EventReviewOutput})
	envs := []telemetry.Envelope{
		envelope(telemetry.AgentReviewer, telemetry.EventReviewOutput, `{"approved":true}`),
		envelope(telemetry.AgentCoder, telemetry.EventCodeOutput, `{"files":[]}`),
	}

	lines := p.Project(envs, view.ModeUser)
	if len(lines) != 1 || lines[0].Event != telemetry.EventCodeOutput {
		t.Fatalf("expected extra hidden type filtered, got %d lines", len(lines))
	}

	// Debug mode still shows it.
	if got := p.Project(envs, view.ModeDebug); len(got) != 2 {
		t.Fatalf("expected debug mode unaffected by hidden set, got %d lines", len(got))
	}
}

func TestProject_TimeFormatting(t *testing.T) {
	p := view.NewProjector(nil)
	lines := p.Project([]telemetry.Envelope{
		envelope(telemetry.AgentCoder, telemetry.EventCodeOutput, `{"files":[]}`),
	}, view.ModeUser)

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Time != "09:30:00" {
		t.Fatalf("expected clock time, got %q", lines[0].Time)
	}
}
