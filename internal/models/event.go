package models

import "time"

// EventType identifies a job lifecycle event published to the UI stream
type EventType string

const (
	EventJobStarted   EventType = "job_started"
	EventJobProgress  EventType = "job_progress"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
)

// Event is a job lifecycle/progress notification pushed over the websocket.
// Payload carries event-specific fields (counters, notes).
type Event struct {
	Type      EventType              `json:"type"`
	JobID     string                 `json:"job_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
