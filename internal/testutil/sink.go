package testutil

import (
	"context"
	"sync"

	"github.com/alpinecapital/crewmesh/core"
)

// RecordingSink keeps every published event in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []core.Event
	closed bool
	Err    error
}

// NewRecordingSink returns an empty sink.
func NewRecordingSink() *RecordingSink { return &RecordingSink{} }

// Publish records ev and returns Err.
func (s *RecordingSink) Publish(_ context.Context, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.Err
}

// Close marks the sink closed.
func (s *RecordingSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Event(nil), s.events...)
}

// Types returns the recorded event types in order.
func (s *RecordingSink) Types() []core.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]core.EventType, len(s.events))
	for i, ev := range s.events {
		types[i] = ev.Type
	}
	return types
}

// OfType returns the recorded events of type t.
func (s *RecordingSink) OfType(t core.EventType) []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
