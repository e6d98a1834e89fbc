package telemetry

// Router is the single ingestion point: every envelope the connection manager
// delivers goes through exactly one Handle call, which logs the raw envelope
// and folds the decoded patch into the store. The router owns no goroutines;
// serialization comes from the connection manager's receive loop being the
// only caller.
type Router struct {
	decoder *Decoder
	store   *Store
	log     *LogBuffer
}

// NewRouter wires a decoder, store, and log buffer into one router.
// Nil arguments get defaults.
func NewRouter(d *Decoder, st *Store, log *LogBuffer) *Router {
	if d == nil {
		d = NewDecoder(nil)
	}
	if st == nil {
		st = NewStore()
	}
	if log == nil {
		log = NewLogBuffer(DefaultLogCapacity)
	}
	return &Router{decoder: d, store: st, log: log}
}

// Handle ingests one envelope: the raw envelope always lands in the log, even
// when its payload cannot be decoded, so nothing is ever silently lost from
// the human's perspective.
func (r *Router) Handle(env Envelope) AgentState {
	r.log.Push(env)
	patch := r.decoder.Decode(env)
	return r.store.Apply(env.Agent, patch)
}

// Store returns the router's agent state store.
func (r *Router) Store() *Store { return r.store }

// Log returns the router's rolling log buffer.
func (r *Router) Log() *LogBuffer { return r.log }
