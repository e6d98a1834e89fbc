package telemetry

import (
	"encoding/json"
	"time"
)

// Patch is a partial state update produced by decoding one envelope. Exactly
// one payload pointer is set for a successfully decoded event; the zero Patch
// is a no-op. The store merges each present payload into the target agent's
// slice without touching fields the patch does not carry.
type Patch struct {
	Code      *CodePatch
	Tasks     *TasksPatch
	Model     *ModelSwitchPatch
	Tokens    *TokenMetricsPatch
	Heartbeat *HeartbeatPatch
	Worker    *WorkerStatusPatch
	Output    *OutputPatch
	UTDS      *UTDSPatch
	Generic   *GenericPatch

	// Malformed is set instead of a payload when the envelope's message could
	// not be parsed. The patch stays a state no-op; the store records a
	// diagnostic.
	Malformed *MalformedPayload
}

// IsZero reports whether the patch carries no payload and no diagnostic.
func (p Patch) IsZero() bool {
	return p.Code == nil && p.Tasks == nil && p.Model == nil && p.Tokens == nil &&
		p.Heartbeat == nil && p.Worker == nil && p.Output == nil && p.UTDS == nil &&
		p.Generic == nil && p.Malformed == nil
}

// MalformedPayload records a message that failed JSON parsing.
type MalformedPayload struct {
	Event EventType
	Err   string
}

// CodePatch carries a CodeOutput payload: the latest code iteration from a
// coding agent.
type CodePatch struct {
	Code          string   `json:"code"`
	Files         []string `json:"files"`
	Iteration     int      `json:"iteration"`
	MaxIterations int      `json:"maxIterations"`
	Model         string   `json:"model"`
}

// Task is one derived task in a CoderTasksOutput payload.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	AssignedTo  string `json:"assigned_to"`
	Description string `json:"description"`
}

// TasksPatch carries a CoderTasksOutput payload.
type TasksPatch struct {
	Tasks []Task `json:"tasks"`
	Count int    `json:"count"`
}

// ModelSwitchPatch carries a ModelSwitch payload. One arrival appends one
// history entry; the current/previous fields replace the slice's model view.
type ModelSwitchPatch struct {
	CurrentModel   string   `json:"new_model"`
	PreviousModel  string   `json:"old_model"`
	ModelsUsed     []string `json:"models_used"`
	FailedAttempts int      `json:"failed_attempts"`
	Reason         string   `json:"reason"`
}

// TokenMetricsPatch carries a TokenMetrics payload.
type TokenMetricsPatch struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	Model        string  `json:"model"`
}

// HeartbeatPatch carries a Heartbeat payload. Applying it also marks the
// agent's coarse status as working.
type HeartbeatPatch struct {
	ElapsedSeconds int    `json:"elapsed_seconds"`
	Count          int    `json:"heartbeat_count"`
	Task           string `json:"task"`
}

// WorkerStatusPatch carries a WorkerStatus payload. Office is the backend's
// human-facing pool label; the decoder resolves it to an agent id before the
// store sees it.
type WorkerStatusPatch struct {
	Office        string `json:"office"`
	ActiveWorkers int    `json:"active_workers"`
	QueuedTasks   int    `json:"queued_tasks"`
	MaxWorkers    int    `json:"max_workers"`
	State         string `json:"state"`

	// Resolved is the agent the office label mapped to.
	Resolved AgentID `json:"-"`
}

// OutputPatch carries one of the agent-output family payloads (ResearchOutput,
// SecurityOutput, ReviewOutput, and so on). Kind records which event produced
// it; only the fields that event populates are meaningful.
type OutputPatch struct {
	Kind      EventType `json:"-"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Files     []string  `json:"files"`
	Model     PatchStr  `json:"model"`
	Iteration int       `json:"iteration"`

	// Security scans.
	Vulnerabilities int    `json:"vulnerabilities"`
	Severity        string `json:"severity"`

	// Review verdicts.
	Approved bool     `json:"approved"`
	Comments []string `json:"comments"`

	// UI test runs.
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// PatchStr is a string that distinguishes "absent" from "empty" when a patch
// field should only overwrite state when the payload actually carried it.
type PatchStr struct {
	Value string
	Set   bool
}

// UnmarshalJSON marks the field as present even when the value is empty.
func (s *PatchStr) UnmarshalJSON(data []byte) error {
	s.Set = true
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, &s.Value)
}

// UTDSPatch carries one UTDS lifecycle payload. Event is the payload-level
// discriminator driving the task-batch state machine.
type UTDSPatch struct {
	Event      string         `json:"event"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByPriority map[string]int `json:"by_priority"`
	ByAgent    map[string]int `json:"by_agent"`
	BatchID    string         `json:"batch_id"`
	Success    bool           `json:"success"`
	Completed  int            `json:"completed"`
	FailedN    int            `json:"failed"`
	Raw        string         `json:"-"`
	Timestamp  time.Time      `json:"-"`
}

// GenericPatch preserves an event the dispatch table does not know: the type,
// the raw payload, and when it arrived.
type GenericPatch struct {
	Event     EventType
	Payload   string
	Timestamp time.Time
}
