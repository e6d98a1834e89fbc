package telemetry_test

import (
	"encoding/json"
	"testing"

	"fleetdeck/pkg/telemetry"
)

func TestPatchStr_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `"sonnet"`, "sonnet"},
		{"empty", `""`, ""},
		{"null", `null`, ""},
		{"escaped quotes", `"claude \"fast\" tier"`, `claude "fast" tier`},
		{"unicode escape", `"modèle"`, "modèle"},
		{"escaped backslash", `"a\\b"`, `a\b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s telemetry.PatchStr
			if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if !s.Set {
				t.Fatal("expected Set after unmarshal")
			}
			if s.Value != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, s.Value)
			}
		})
	}
}

func TestPatchStr_AbsentStaysUnset(t *testing.T) {
	var p telemetry.OutputPatch
	if err := json.Unmarshal([]byte(`{"summary":"done"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Model.Set {
		t.Fatal("expected Model unset when the payload omits it")
	}
}
