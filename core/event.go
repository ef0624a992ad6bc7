package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies pipeline lifecycle events.
type EventType string

const (
	EventRunStarted     EventType = "run.started"
	EventRunCompleted   EventType = "run.completed"
	EventRunFailed      EventType = "run.failed"
	EventTaskStarted    EventType = "task.started"
	EventTaskCompleted  EventType = "task.completed"
	EventTaskFailed     EventType = "task.failed"
	EventTrainIteration EventType = "train.iteration"
)

// Event is an immutable record of a pipeline state change. Events are
// published to sinks for observability only; nothing reads them back.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Crew      string    `json:"crew"`
	Task      string    `json:"task,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Iteration int       `json:"iteration,omitempty"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event of type t bound to a run.
func NewEvent(t EventType, runID, crew string) Event {
	return Event{
		ID:        NewID(),
		Type:      t,
		RunID:     runID,
		Crew:      crew,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for runs, events and tool calls.
func NewID() string { return uuid.NewString() }
