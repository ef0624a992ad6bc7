// Package events publishes pipeline lifecycle events (run and task state
// changes, training iterations) to observability sinks.
//
// Sinks never influence a run: publish failures are logged by the runner and
// otherwise ignored.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/logging"
)

// Sink receives lifecycle events.
type Sink interface {
	Publish(ctx context.Context, ev core.Event) error
	Close() error
}

// Discard drops every event.
type Discard struct{}

// Publish implements Sink.
func (Discard) Publish(context.Context, core.Event) error { return nil }

// Close implements Sink.
func (Discard) Close() error { return nil }

// LogSink writes events to a logger, one entry per event.
type LogSink struct {
	logger logging.Logger
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logging.OrNoOp(logger)}
}

// Publish implements Sink.
func (s *LogSink) Publish(_ context.Context, ev core.Event) error {
	args := []any{"event_id", ev.ID, "run_id", ev.RunID, "crew", ev.Crew}
	if ev.Task != "" {
		args = append(args, "task", ev.Task)
	}
	if ev.Agent != "" {
		args = append(args, "agent", ev.Agent)
	}
	if ev.Iteration > 0 {
		args = append(args, "iteration", ev.Iteration)
	}
	if ev.Error != "" {
		args = append(args, "error", ev.Error)
		s.logger.Warn("event."+string(ev.Type), args...)
		return nil
	}
	s.logger.Info("event."+string(ev.Type), args...)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }

// Multi fans events out to several sinks. Every sink sees every event even
// when an earlier one fails; the failures are joined.
type Multi struct {
	mu    sync.Mutex
	sinks []Sink
}

// NewMulti creates a fan-out sink. Nil sinks are skipped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Add appends a sink.
func (m *Multi) Add(s Sink) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()
}

// Publish implements Sink.
func (m *Multi) Publish(ctx context.Context, ev core.Event) error {
	m.mu.Lock()
	sinks := append([]Sink(nil), m.sinks...)
	m.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *Multi) Close() error {
	m.mu.Lock()
	sinks := m.sinks
	m.sinks = nil
	m.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
