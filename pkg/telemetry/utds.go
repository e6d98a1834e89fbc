package telemetry

import "time"

// Batch statuses for the task-derivation projection.
const (
	BatchDeriving  = "deriving"
	BatchExecuting = "executing"
	BatchComplete  = "complete"
	BatchPartial   = "partial"
)

// BatchRun is one execution batch inside a derivation run.
type BatchRun struct {
	ID      string
	Success bool
}

// TaskBatch tracks a single task-derivation run from DerivationStart through
// DerivationComplete. One projection exists at a time; a new DerivationStart
// replaces it outright.
type TaskBatch struct {
	Status     string
	TotalTasks int
	ByCategory map[string]int
	ByPriority map[string]int
	ByAgent    map[string]int

	CurrentBatch *BatchRun
	LastBatch    *BatchRun

	Completed int
	Failed    int

	StartedAt  time.Time
	FinishedAt time.Time

	// LastEvent captures UTDS payload event names that do not transition the
	// machine.
	LastEvent string
}

// UTDS payload event names driving the machine. These mirror the envelope
// event types but arrive inside the payload, so the machine keys on them
// independently.
const (
	utdsDerivationStart    = "DerivationStart"
	utdsTasksDerived       = "TasksDerived"
	utdsBatchStart         = "BatchExecutionStart"
	utdsBatchComplete      = "BatchExecutionComplete"
	utdsDerivationComplete = "DerivationComplete"
)

// apply folds one UTDS payload into the projection, returning the new value.
// The receiver is never mutated; a nil receiver means no run is in flight,
// which only DerivationStart can change.
func (b *TaskBatch) apply(p *UTDSPatch) *TaskBatch {
	if p.Event == utdsDerivationStart {
		return &TaskBatch{
			Status:     BatchDeriving,
			ByCategory: copyCounts(p.ByCategory),
			ByPriority: copyCounts(p.ByPriority),
			ByAgent:    copyCounts(p.ByAgent),
			StartedAt:  time.Now(),
		}
	}
	if b == nil {
		// Mid-run events with no run in flight: nothing to transition.
		return nil
	}

	next := *b
	next.ByCategory = copyCounts(b.ByCategory)
	next.ByPriority = copyCounts(b.ByPriority)
	next.ByAgent = copyCounts(b.ByAgent)

	switch p.Event {
	case utdsTasksDerived:
		next.TotalTasks = p.Total
		if len(p.ByCategory) > 0 {
			next.ByCategory = copyCounts(p.ByCategory)
		}
		if len(p.ByPriority) > 0 {
			next.ByPriority = copyCounts(p.ByPriority)
		}
		if len(p.ByAgent) > 0 {
			next.ByAgent = copyCounts(p.ByAgent)
		}

	case utdsBatchStart:
		next.Status = BatchExecuting
		next.CurrentBatch = &BatchRun{ID: p.BatchID}

	case utdsBatchComplete:
		next.LastBatch = &BatchRun{ID: p.BatchID, Success: p.Success}
		next.CurrentBatch = nil

	case utdsDerivationComplete:
		if p.Success {
			next.Status = BatchComplete
		} else {
			next.Status = BatchPartial
		}
		next.Completed = p.Completed
		next.Failed = p.FailedN
		next.FinishedAt = time.Now()

	default:
		next.LastEvent = p.Event
	}

	return &next
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
