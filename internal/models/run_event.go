package models

import "time"

// Run event types.
const (
	EventRunStarted   = "RUN_STARTED"
	EventRunCompleted = "RUN_COMPLETED"
	EventRunFailed    = "RUN_FAILED"
	EventNonFiniteFit = "NON_FINITE_FIT"
)

// RunEvent is a single entry of the analysis event log.
type RunEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // RUN_STARTED | RUN_COMPLETED | RUN_FAILED | NON_FINITE_FIT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
