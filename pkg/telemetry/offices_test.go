package telemetry_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fleetdeck/pkg/telemetry"
)

func TestOfficeMap_ResolveKnownLabels(t *testing.T) {
	m := telemetry.DefaultOfficeMap()

	tests := []struct {
		office string
		want   telemetry.AgentID
	}{
		{"coder office", telemetry.AgentCoder},
		{"Coder Office", telemetry.AgentCoder},
		{"  TESTER OFFICE ", telemetry.AgentTester},
		{"db designer office", telemetry.AgentDBDesigner},
		{"documentation office", telemetry.AgentDocsManager},
	}

	for _, tt := range tests {
		got, err := m.Resolve(tt.office)
		if err != nil {
			t.Errorf("Resolve(%q) returned error: %v", tt.office, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.office, got, tt.want)
		}
	}
}

func TestOfficeMap_ResolveUnknownLabel(t *testing.T) {
	m := telemetry.DefaultOfficeMap()

	_, err := m.Resolve("mystery office")
	if err == nil {
		t.Fatal("expected error for unknown office")
	}
	var unknownErr *telemetry.UnknownOfficeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownOfficeError, got %T", err)
	}
	if unknownErr.Office != "mystery office" {
		t.Fatalf("expected office label in error, got %q", unknownErr.Office)
	}
}

func TestLoadOfficeMap_MissingFileUsesDefaults(t *testing.T) {
	m, err := telemetry.LoadOfficeMap(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.Resolve("coder office")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != telemetry.AgentCoder {
		t.Fatalf("expected coder, got %q", got)
	}
}

func TestLoadOfficeMap_OverrideExtendsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.yaml")
	content := "offices:\n  Mystery Office: coder\n  coder office: tester\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	m, err := telemetry.LoadOfficeMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// New label added.
	got, err := m.Resolve("mystery office")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != telemetry.AgentCoder {
		t.Fatalf("expected new label to map to coder, got %q", got)
	}

	// Existing label overridden.
	got, err = m.Resolve("coder office")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != telemetry.AgentTester {
		t.Fatalf("expected override to tester, got %q", got)
	}

	// Untouched defaults still resolve.
	if _, err := m.Resolve("fix office"); err != nil {
		t.Fatalf("expected default label to survive override: %v", err)
	}
}

func TestLoadOfficeMap_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.yaml")
	if err := os.WriteFile(path, []byte("offices: [not a map"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	if _, err := telemetry.LoadOfficeMap(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
