package telemetry

import "sync"

// DefaultLogCapacity is the rolling log's cap when none is configured.
const DefaultLogCapacity = 500

// LogBuffer is a bounded FIFO of raw envelopes backing the activity feed.
// When full, the oldest envelope is evicted before the newest is appended.
// The buffer is a display aid only; truncation never affects the store.
type LogBuffer struct {
	mu   sync.Mutex
	envs []Envelope
	cap  int
}

// NewLogBuffer creates a buffer holding at most capacity envelopes.
// A capacity below 1 falls back to DefaultLogCapacity.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity < 1 {
		capacity = DefaultLogCapacity
	}
	return &LogBuffer{
		envs: make([]Envelope, 0, capacity),
		cap:  capacity,
	}
}

// Push appends env, evicting the oldest entry if the buffer is full.
func (b *LogBuffer) Push(env Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.envs) >= b.cap {
		copy(b.envs, b.envs[1:])
		b.envs[len(b.envs)-1] = env
	} else {
		b.envs = append(b.envs, env)
	}
}

// Snapshot returns up to limit of the newest envelopes in arrival order.
// limit <= 0 returns everything buffered. The returned slice is a copy.
func (b *LogBuffer) Snapshot(limit int) []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.envs)
	if limit > 0 && limit < n {
		out := make([]Envelope, limit)
		copy(out, b.envs[n-limit:])
		return out
	}
	out := make([]Envelope, n)
	copy(out, b.envs)
	return out
}

// Len returns the number of buffered envelopes.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.envs)
}
