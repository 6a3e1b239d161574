package entities

import "time"

// SearchEventType identifies the kind of lifecycle event emitted by a run.
type SearchEventType string

const (
	// SearchEventTransition is emitted on every status transition
	SearchEventTransition SearchEventType = "transition"

	// SearchEventSuppressed is emitted when a stale run's callback was discarded
	SearchEventSuppressed SearchEventType = "suppressed"
)

// SearchEvent describes one observable moment of a locator run. Events are
// published to the event bus so presenter streams can follow a run without
// polling the snapshot endpoint.
type SearchEvent struct {
	EventType   SearchEventType `json:"event_type"`
	RunID       string          `json:"run_id"`
	Token       uint64          `json:"token"`
	Status      SearchStatus    `json:"status"`
	ResultCount int             `json:"result_count"`
	Timestamp   time.Time       `json:"timestamp"`
}
