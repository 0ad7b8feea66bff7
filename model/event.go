package model

import "time"

// Event identifiers recognised by the approver.
const (
	// EventManualQAFlagged marks a round trip as having passed manual QA.
	EventManualQAFlagged = "Manual_QA_Flagged"

	// EventManualStopped permanently blocks a round trip from being approved.
	EventManualStopped = "Manual_Stopped"

	// EventRoundtripApproved is recorded by the host after every evaluation.
	EventRoundtripApproved = "Roundtrip_Approved"
)

// Event is an immutable record attached to a single round trip.
type Event struct {
	ID        string    `json:"id" yaml:"id"`
	Actor     string    `json:"actor,omitempty" yaml:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Details   string    `json:"details,omitempty" yaml:"details,omitempty"`
	Success   bool      `json:"success" yaml:"success"`
}

// NewEvent creates an event
func NewEvent(id, actor string, timestamp time.Time, details string, success bool) *Event {
	return &Event{
		ID:        id,
		Actor:     actor,
		Timestamp: timestamp,
		Details:   details,
		Success:   success,
	}
}
