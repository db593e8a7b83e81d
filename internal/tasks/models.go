package tasks

import "time"

// Kind names a registered unit of background work.
type Kind string

const (
	// KindProcessItem runs the full ingest pipeline for one item.
	KindProcessItem Kind = "item.process"
	// KindEnrichItem chunks and indexes a completed item's transcript.
	KindEnrichItem Kind = "item.enrich"
	// KindComposeDigest builds the narrative and audio for a digest.
	KindComposeDigest Kind = "digest.compose"
)

// State is the lifecycle of a queued task.
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Task is one durable unit of work persisted in the shared database. Tasks
// survive daemon restarts; a crashed worker's running tasks are reclaimed
// once their lease expires.
type Task struct {
	ID        int64
	Kind      Kind
	Payload   string
	State     State
	Attempts  int
	ClaimedBy string
	ClaimedAt *time.Time
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
