package view_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"fleetdeck/pkg/telemetry"
	"fleetdeck/pkg/view"
)

// project renders a single envelope in user mode and returns its line.
func project(t *testing.T, env telemetry.Envelope) view.DisplayLine {
	t.Helper()
	lines := view.NewProjector(nil).Project([]telemetry.Envelope{env}, view.ModeUser)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	return lines[0]
}

func TestFormat_CodeOutput(t *testing.T) {
	line := project(t, envelope(telemetry.AgentCoder, telemetry.EventCodeOutput,
		`{"files":["main.go","util.go"],"iteration":2,"maxIterations":5,"model":"sonnet"}`))

	if line.Title != "Code written" {
		t.Fatalf("expected title, got %q", line.Title)
	}
	if line.Summary != "2 file(s), iteration 2/5" {
		t.Fatalf("unexpected summary %q", line.Summary)
	}
	if !strings.Contains(line.Detail, "main.go") || !strings.Contains(line.Detail, "sonnet") {
		t.Fatalf("expected files and model in detail, got %q", line.Detail)
	}
}

func TestFormat_ModelSwitch(t *testing.T) {
	line := project(t, envelope(telemetry.AgentCoder, telemetry.EventModelSwitch,
		`{"old_model":"sonnet","new_model":"opus","reason":"escalation"}`))

	if line.Summary != "sonnet → opus" {
		t.Fatalf("expected arrow summary, got %q", line.Summary)
	}
	if line.Detail != "escalation" {
		t.Fatalf("expected reason in detail, got %q", line.Detail)
	}
}

func TestFormat_SecurityScan(t *testing.T) {
	clean := project(t, envelope(telemetry.AgentSecurity, telemetry.EventSecurityOutput,
		`{"vulnerabilities":0,"summary":"all clear"}`))
	if clean.Summary != "no findings" {
		t.Fatalf("expected clean summary, got %q", clean.Summary)
	}

	dirty := project(t, envelope(telemetry.AgentSecurity, telemetry.EventSecurityOutput,
		`{"vulnerabilities":3,"severity":"high","summary":"issues found"}`))
	if dirty.Summary != "3 finding(s), worst high" {
		t.Fatalf("unexpected summary %q", dirty.Summary)
	}
}

func TestFormat_Review(t *testing.T) {
	approved := project(t, envelope(telemetry.AgentReviewer, telemetry.EventReviewOutput,
		`{"approved":true,"summary":"lgtm"}`))
	if approved.Summary != "approved" {
		t.Fatalf("expected approved, got %q", approved.Summary)
	}

	rejected := project(t, envelope(telemetry.AgentReviewer, telemetry.EventReviewOutput,
		`{"approved":false,"comments":["a","b","c"]}`))
	if rejected.Summary != "changes requested (3 comment(s))" {
		t.Fatalf("unexpected summary %q", rejected.Summary)
	}
}

func TestFormat_UITest(t *testing.T) {
	line := project(t, envelope(telemetry.AgentTester, telemetry.EventUITestResult,
		`{"passed":8,"failed":2,"total":10}`))

	if line.Summary != "8/10 passed" {
		t.Fatalf("unexpected summary %q", line.Summary)
	}
	if line.Detail != "2 failing" {
		t.Fatalf("expected failing count in detail, got %q", line.Detail)
	}
}

func TestFormat_UTDSLifecycle(t *testing.T) {
	derived := project(t, envelope(telemetry.AgentUTDS, telemetry.EventTasksDerived,
		`{"total":12}`))
	if derived.Title != "Tasks derived" || derived.Summary != "12 task(s)" {
		t.Fatalf("unexpected line %q / %q", derived.Title, derived.Summary)
	}

	failedBatch := project(t, envelope(telemetry.AgentUTDS, telemetry.EventBatchComplete,
		`{"batch_id":"b3","success":false}`))
	if failedBatch.Summary != "batch b3 (with failures)" {
		t.Fatalf("unexpected summary %q", failedBatch.Summary)
	}
}

func TestFormat_MalformedPayloadFallsBack(t *testing.T) {
	line := project(t, envelope(telemetry.AgentCoder, telemetry.EventCodeOutput, "not json"))

	if line.Title != "CodeOutput" {
		t.Fatalf("expected event type as title, got %q", line.Title)
	}
	if line.Summary != "not json" {
		t.Fatalf("expected raw message shown, got %q", line.Summary)
	}
}

func TestFormat_UnknownEventGeneric(t *testing.T) {
	line := project(t, envelope(telemetry.AgentSystem, "FutureEvent", "something happened"))

	if line.Title != "FutureEvent from system" {
		t.Fatalf("unexpected title %q", line.Title)
	}
	if line.Summary != "something happened" {
		t.Fatalf("expected message in summary, got %q", line.Summary)
	}
}

func TestFormat_LongSummaryTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	line := project(t, envelope(telemetry.AgentSystem, "FutureEvent", long))

	if len(line.Summary) > 120 {
		t.Fatalf("expected summary truncated to 120, got %d", len(line.Summary))
	}
	if !strings.HasSuffix(line.Summary, "...") {
		t.Fatalf("expected ellipsis, got %q", line.Summary[len(line.Summary)-5:])
	}
	if line.Detail != long {
		t.Fatal("expected full message preserved in detail")
	}
}

func TestFormat_MultibyteSummaryTruncated(t *testing.T) {
	long := strings.Repeat("日本語テスト", 60)
	line := project(t, envelope(telemetry.AgentSystem, "FutureEvent", long))

	if !utf8.ValidString(line.Summary) {
		t.Fatalf("expected valid UTF-8 summary, got %q", line.Summary)
	}
	if n := utf8.RuneCountInString(line.Summary); n > 120 {
		t.Fatalf("expected summary truncated to 120 runes, got %d", n)
	}
	if !strings.HasSuffix(line.Summary, "...") {
		t.Fatalf("expected ellipsis, got %q", line.Summary)
	}
}
