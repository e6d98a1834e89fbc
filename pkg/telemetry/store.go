package telemetry

import (
	"sync"
	"time"
)

// ModelSwitch is one entry in an agent's model-switch history. Arrival order
// is the order of truth; entries are never reordered by timestamp.
type ModelSwitch struct {
	OldModel       string
	NewModel       string
	Reason         string
	FailedAttempts int
}

// Heartbeat is the transient liveness sub-state for one agent. Only the most
// recent value is retained.
type Heartbeat struct {
	ElapsedSeconds int
	Count          int
	Task           string
	At             time.Time
}

// WorkerPool is the latest worker-pool stats for one agent's office.
type WorkerPool struct {
	Office        string
	ActiveWorkers int
	QueuedTasks   int
	MaxWorkers    int
	State         string
}

// Output is the latest output-family payload for one event kind.
type Output struct {
	Kind            EventType
	Summary         string
	Content         string
	Files           []string
	Vulnerabilities int
	Severity        string
	Approved        bool
	Comments        []string
	Passed          int
	Failed          int
	Total           int
	At              time.Time
}

// LastEvent is the catch-all record for event types the dispatch table does
// not know.
type LastEvent struct {
	Event     EventType
	Payload   string
	Timestamp time.Time
}

// AgentState is the slice owned by one agent: every field a decoded event is
// entitled to update. The zero value is the well-defined "not seen yet"
// state, so readers never special-case missing agents.
type AgentState struct {
	Agent  AgentID
	Status string // "" until the first heartbeat marks the agent working

	Code          string
	Files         []string
	Iteration     int
	MaxIterations int
	Model         string

	Tasks     []Task
	TaskCount int

	CurrentModel   string
	PreviousModel  string
	ModelsUsed     []string
	FailedAttempts int
	SwitchReason   string
	ModelHistory   []ModelSwitch

	Tokens *TokenMetricsPatch

	Heartbeat *Heartbeat

	Worker *WorkerPool

	Outputs map[EventType]Output

	LastEvent *LastEvent

	UpdatedAt time.Time
}

// clone returns a copy of s safe to mutate: slices and maps are duplicated so
// previously handed-out snapshots stay frozen.
func (s AgentState) clone() AgentState {
	out := s
	if s.Files != nil {
		out.Files = append([]string(nil), s.Files...)
	}
	if s.Tasks != nil {
		out.Tasks = append([]Task(nil), s.Tasks...)
	}
	if s.ModelsUsed != nil {
		out.ModelsUsed = append([]string(nil), s.ModelsUsed...)
	}
	if s.ModelHistory != nil {
		out.ModelHistory = append([]ModelSwitch(nil), s.ModelHistory...)
	}
	if s.Outputs != nil {
		out.Outputs = make(map[EventType]Output, len(s.Outputs))
		for k, v := range s.Outputs {
			out.Outputs[k] = v
		}
	}
	return out
}

// Diagnostics counts locally-recovered decode problems. These never interrupt
// the stream; they exist so the debug view can show that events were received
// but not structurally interpreted.
type Diagnostics struct {
	MalformedPayloads int
	UnknownOffices    int
	LastError         string
}

// Store holds the per-agent projections plus the cross-cutting task-batch
// projection. Apply merges immutably: the previous AgentState value handed to
// a reader is never mutated in place. The store is safe for one writer and
// many readers.
type Store struct {
	mu     sync.RWMutex
	slices map[AgentID]AgentState
	batch  *TaskBatch
	diag   Diagnostics
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{slices: make(map[AgentID]AgentState)}
}

// Apply merges patch into agent's slice and returns the new slice value.
// Every field the patch carries overwrites; every field it does not carry is
// retained, regardless of which event types produced earlier patches.
func (st *Store) Apply(agent AgentID, patch Patch) AgentState {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.slices[agent].clone()
	next.Agent = agent

	switch {
	case patch.Malformed != nil:
		st.diag.MalformedPayloads++
		st.diag.LastError = patch.Malformed.Err
		return st.slices[agent] // prior state unchanged

	case patch.Code != nil:
		p := patch.Code
		next.Code = p.Code
		next.Files = append([]string(nil), p.Files...)
		next.Iteration = p.Iteration
		next.MaxIterations = p.MaxIterations
		if p.Model != "" {
			next.Model = p.Model
		}

	case patch.Tasks != nil:
		p := patch.Tasks
		next.Tasks = append([]Task(nil), p.Tasks...)
		next.TaskCount = p.Count

	case patch.Model != nil:
		p := patch.Model
		next.CurrentModel = p.CurrentModel
		next.PreviousModel = p.PreviousModel
		next.ModelsUsed = append([]string(nil), p.ModelsUsed...)
		next.FailedAttempts = p.FailedAttempts
		next.SwitchReason = p.Reason
		next.ModelHistory = append(next.ModelHistory, ModelSwitch{
			OldModel:       p.PreviousModel,
			NewModel:       p.CurrentModel,
			Reason:         p.Reason,
			FailedAttempts: p.FailedAttempts,
		})

	case patch.Tokens != nil:
		tok := *patch.Tokens
		next.Tokens = &tok

	case patch.Heartbeat != nil:
		p := patch.Heartbeat
		next.Status = "working"
		next.Heartbeat = &Heartbeat{
			ElapsedSeconds: p.ElapsedSeconds,
			Count:          p.Count,
			Task:           p.Task,
			At:             time.Now(),
		}

	case patch.Worker != nil:
		p := patch.Worker
		if p.Resolved == "" {
			st.diag.UnknownOffices++
			return st.slices[agent] // unmapped office: skip the update
		}
		// Worker stats land on the resolved agent, not the envelope's agent.
		target := st.slices[p.Resolved].clone()
		target.Agent = p.Resolved
		target.Worker = &WorkerPool{
			Office:        p.Office,
			ActiveWorkers: p.ActiveWorkers,
			QueuedTasks:   p.QueuedTasks,
			MaxWorkers:    p.MaxWorkers,
			State:         p.State,
		}
		target.UpdatedAt = time.Now()
		st.slices[p.Resolved] = target
		return target

	case patch.Output != nil:
		p := patch.Output
		if next.Outputs == nil {
			next.Outputs = make(map[EventType]Output, 1)
		}
		next.Outputs[p.Kind] = Output{
			Kind:            p.Kind,
			Summary:         p.Summary,
			Content:         p.Content,
			Files:           append([]string(nil), p.Files...),
			Vulnerabilities: p.Vulnerabilities,
			Severity:        p.Severity,
			Approved:        p.Approved,
			Comments:        append([]string(nil), p.Comments...),
			Passed:          p.Passed,
			Failed:          p.Failed,
			Total:           p.Total,
			At:              time.Now(),
		}
		if p.Model.Set && p.Model.Value != "" {
			next.Model = p.Model.Value
		}
		if p.Iteration != 0 {
			next.Iteration = p.Iteration
		}

	case patch.UTDS != nil:
		st.batch = st.batch.apply(patch.UTDS)
		next.LastEvent = &LastEvent{
			Event:     EventType(patch.UTDS.Event),
			Payload:   patch.UTDS.Raw,
			Timestamp: patch.UTDS.Timestamp,
		}

	case patch.Generic != nil:
		p := patch.Generic
		next.LastEvent = &LastEvent{Event: p.Event, Payload: p.Payload, Timestamp: p.Timestamp}

	default:
		return st.slices[agent] // zero patch: nothing to merge
	}

	next.UpdatedAt = time.Now()
	st.slices[agent] = next
	return next
}

// Get returns agent's slice, or the zero-value slice for agents with no
// events yet.
func (st *Store) Get(agent AgentID) AgentState {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if s, ok := st.slices[agent]; ok {
		return s
	}
	return AgentState{Agent: agent}
}

// Snapshot returns a copy of the full agent map. Callers own the copy; it is
// frozen at call time and will not change under them.
func (st *Store) Snapshot() map[AgentID]AgentState {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make(map[AgentID]AgentState, len(st.slices))
	for k, v := range st.slices {
		out[k] = v
	}
	return out
}

// Batch returns the current task-derivation projection, or nil before the
// first DerivationStart.
func (st *Store) Batch() *TaskBatch {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.batch
}

// Diag returns the diagnostics counters.
func (st *Store) Diag() Diagnostics {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.diag
}
