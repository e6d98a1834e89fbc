// Package telemetry implements the agent telemetry event router: the envelope
// model, per-event-type decoders, the dispatch table, the per-agent state
// store, and the rolling log buffer that together turn the orchestrator's raw
// event stream into the projections the dashboard reads.
package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AgentID identifies one agent in the fleet.
type AgentID string

// Known agent identifiers. Labels arriving on the wire are case-normalized
// before comparison; anything outside this set is preserved verbatim so new
// agents added to the backend still flow through the log.
const (
	AgentCoder        AgentID = "coder"
	AgentTester       AgentID = "tester"
	AgentDesigner     AgentID = "designer"
	AgentReviewer     AgentID = "reviewer"
	AgentResearcher   AgentID = "researcher"
	AgentTechArch     AgentID = "techarchitect"
	AgentDBDesigner   AgentID = "dbdesigner"
	AgentSecurity     AgentID = "security"
	AgentDocsManager  AgentID = "documentationmanager"
	AgentPlanner      AgentID = "planner"
	AgentFix          AgentID = "fix"
	AgentOrchestrator AgentID = "orchestrator"
	AgentSystem       AgentID = "system"
	AgentUTDS         AgentID = "utds"
)

// knownAgents is the closed set used by KnownAgent.
var knownAgents = map[AgentID]bool{
	AgentCoder:        true,
	AgentTester:       true,
	AgentDesigner:     true,
	AgentReviewer:     true,
	AgentResearcher:   true,
	AgentTechArch:     true,
	AgentDBDesigner:   true,
	AgentSecurity:     true,
	AgentDocsManager:  true,
	AgentPlanner:      true,
	AgentFix:          true,
	AgentOrchestrator: true,
	AgentSystem:       true,
	AgentUTDS:         true,
}

// NormalizeAgent lowercases and trims a wire agent label. Unknown labels are
// returned normalized rather than rejected.
func NormalizeAgent(label string) AgentID {
	return AgentID(strings.ToLower(strings.TrimSpace(label)))
}

// KnownAgent reports whether id is one of the fixed agent enumeration.
func KnownAgent(id AgentID) bool {
	return knownAgents[id]
}

// EventType names one kind of telemetry event. The enumeration is open:
// types outside the known subset route to the generic decoder.
type EventType string

// Event types known to the dispatch table.
const (
	EventCodeOutput         EventType = "CodeOutput"
	EventCoderTasksOutput   EventType = "CoderTasksOutput"
	EventModelSwitch        EventType = "ModelSwitch"
	EventTokenMetrics       EventType = "TokenMetrics"
	EventHeartbeat          EventType = "Heartbeat"
	EventWorkerStatus       EventType = "WorkerStatus"
	EventResearchOutput     EventType = "ResearchOutput"
	EventSecurityOutput     EventType = "SecurityOutput"
	EventSecurityRescan     EventType = "SecurityRescanOutput"
	EventReviewOutput       EventType = "ReviewOutput"
	EventDesignerOutput     EventType = "DesignerOutput"
	EventDBDesignerOutput   EventType = "DBDesignerOutput"
	EventUITestResult       EventType = "UITestResult"
	EventTechStackOutput    EventType = "TechStackOutput"
	EventDerivationStart    EventType = "DerivationStart"
	EventTasksDerived       EventType = "TasksDerived"
	EventBatchStart         EventType = "BatchExecutionStart"
	EventBatchComplete      EventType = "BatchExecutionComplete"
	EventDerivationComplete EventType = "DerivationComplete"
)

// Envelope is one inbound event record. Message is untrusted text that is
// usually, but not contractually, JSON. Envelopes are immutable once received.
type Envelope struct {
	Agent     AgentID
	Event     EventType
	Message   string
	Timestamp time.Time
}

// wireEnvelope mirrors the orchestrator's frame shape: all fields are strings
// on the wire, including the timestamp.
type wireEnvelope struct {
	Agent     string `json:"agent"`
	Event     string `json:"event"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// timestampFormats are tried in order when parsing the wire timestamp.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseEnvelope decodes one transport frame into an Envelope, normalizing the
// agent label at the boundary. A frame that is not a JSON envelope at all is a
// transport-layer error; a missing or unparseable timestamp falls back to the
// receive time rather than failing the frame.
func ParseEnvelope(frame []byte, received time.Time) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(frame, &w); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if w.Agent == "" && w.Event == "" {
		return Envelope{}, fmt.Errorf("parse envelope: missing agent and event")
	}

	ts := received
	for _, layout := range timestampFormats {
		if parsed, err := time.Parse(layout, w.Timestamp); err == nil {
			ts = parsed
			break
		}
	}

	return Envelope{
		Agent:     NormalizeAgent(w.Agent),
		Event:     EventType(w.Event),
		Message:   w.Message,
		Timestamp: ts,
	}, nil
}
