package telemetry

import (
	"encoding/json"
	"fmt"
)

// decoderFunc parses one envelope's message into a patch. Decoders return an
// error only for malformed payloads; the dispatcher maps that error to a
// no-op patch so decoding never propagates exceptional control flow.
type decoderFunc func(d *Decoder, env Envelope) (Patch, error)

// dispatchTable maps each known event type to its decoder. Adding a new event
// type is a data change here plus a payload struct; nothing routes through a
// switch.
var dispatchTable = map[EventType]decoderFunc{
	EventCodeOutput:         decodeCodeOutput,
	EventCoderTasksOutput:   decodeCoderTasks,
	EventModelSwitch:        decodeModelSwitch,
	EventTokenMetrics:       decodeTokenMetrics,
	EventHeartbeat:          decodeHeartbeat,
	EventWorkerStatus:       decodeWorkerStatus,
	EventResearchOutput:     decodeOutput,
	EventSecurityOutput:     decodeOutput,
	EventSecurityRescan:     decodeOutput,
	EventReviewOutput:       decodeOutput,
	EventDesignerOutput:     decodeOutput,
	EventDBDesignerOutput:   decodeOutput,
	EventUITestResult:       decodeOutput,
	EventTechStackOutput:    decodeOutput,
	EventDerivationStart:    decodeUTDS,
	EventTasksDerived:       decodeUTDS,
	EventBatchStart:         decodeUTDS,
	EventBatchComplete:      decodeUTDS,
	EventDerivationComplete: decodeUTDS,
}

// Decoder turns envelopes into patches. It carries the office map used to
// resolve WorkerStatus labels; everything else is stateless.
type Decoder struct {
	offices *OfficeMap
}

// NewDecoder creates a Decoder resolving WorkerStatus offices through m.
// A nil m uses the built-in table.
func NewDecoder(m *OfficeMap) *Decoder {
	if m == nil {
		m = DefaultOfficeMap()
	}
	return &Decoder{offices: m}
}

// Decode routes env through the dispatch table. It never fails: malformed
// payloads come back as a Patch with Malformed set, and unknown event types
// come back as a GenericPatch preserving the raw payload.
func (d *Decoder) Decode(env Envelope) Patch {
	fn, ok := dispatchTable[env.Event]
	if !ok {
		return Patch{Generic: &GenericPatch{
			Event:     env.Event,
			Payload:   env.Message,
			Timestamp: env.Timestamp,
		}}
	}

	patch, err := fn(d, env)
	if err != nil {
		return Patch{Malformed: &MalformedPayload{Event: env.Event, Err: err.Error()}}
	}
	return patch
}

// parseMessage unmarshals an envelope message into v with a uniform error.
func parseMessage(env Envelope, v any) error {
	if err := json.Unmarshal([]byte(env.Message), v); err != nil {
		return fmt.Errorf("parse %s payload: %w", env.Event, err)
	}
	return nil
}

func decodeCodeOutput(_ *Decoder, env Envelope) (Patch, error) {
	var p CodePatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	if p.Files == nil {
		p.Files = []string{}
	}
	return Patch{Code: &p}, nil
}

func decodeCoderTasks(_ *Decoder, env Envelope) (Patch, error) {
	var p TasksPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	if p.Count == 0 {
		p.Count = len(p.Tasks)
	}
	return Patch{Tasks: &p}, nil
}

func decodeModelSwitch(_ *Decoder, env Envelope) (Patch, error) {
	var p ModelSwitchPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	if p.ModelsUsed == nil {
		p.ModelsUsed = []string{}
	}
	return Patch{Model: &p}, nil
}

func decodeTokenMetrics(_ *Decoder, env Envelope) (Patch, error) {
	var p TokenMetricsPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	if p.TotalTokens == 0 {
		p.TotalTokens = p.InputTokens + p.OutputTokens
	}
	return Patch{Tokens: &p}, nil
}

func decodeHeartbeat(_ *Decoder, env Envelope) (Patch, error) {
	var p HeartbeatPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	return Patch{Heartbeat: &p}, nil
}

// decodeWorkerStatus resolves the office label to an agent id. An unknown
// label is not a parse error: the event stays in the log, the patch is a
// no-op, and the store counts the skip.
func decodeWorkerStatus(d *Decoder, env Envelope) (Patch, error) {
	var p WorkerStatusPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}

	agent, err := d.offices.Resolve(p.Office)
	if err != nil {
		return Patch{Worker: &p}, nil // Resolved left empty; store skips
	}
	p.Resolved = agent
	return Patch{Worker: &p}, nil
}

func decodeOutput(_ *Decoder, env Envelope) (Patch, error) {
	var p OutputPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	p.Kind = env.Event
	if p.Files == nil {
		p.Files = []string{}
	}
	if p.Comments == nil {
		p.Comments = []string{}
	}
	return Patch{Output: &p}, nil
}

// decodeUTDS parses one task-derivation lifecycle payload. The payload-level
// event field drives the state machine; when the backend omits it the
// envelope's event type stands in.
func decodeUTDS(_ *Decoder, env Envelope) (Patch, error) {
	var p UTDSPatch
	if err := parseMessage(env, &p); err != nil {
		return Patch{}, err
	}
	if p.Event == "" {
		p.Event = string(env.Event)
	}
	p.Raw = env.Message
	p.Timestamp = env.Timestamp
	if p.ByCategory == nil {
		p.ByCategory = map[string]int{}
	}
	if p.ByPriority == nil {
		p.ByPriority = map[string]int{}
	}
	if p.ByAgent == nil {
		p.ByAgent = map[string]int{}
	}
	return Patch{UTDS: &p}, nil
}
