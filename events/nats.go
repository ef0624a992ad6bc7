package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/alpinecapital/crewmesh/core"
)

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "crewmesh.events"

// NATSOptions configures a NATSSink.
type NATSOptions struct {
	// Subject prefix; the event type is appended, e.g. crewmesh.events.task.completed.
	Subject string
	// Name identifies the connection on the server.
	Name string
}

// NATSSink publishes events as JSON messages.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSink connects to the server at url.
func NewNATSSink(url string, optFns ...func(o *NATSOptions)) (*NATSSink, error) {
	opts := NATSOptions{Subject: DefaultSubject, Name: "crewmesh"}
	for _, fn := range optFns {
		fn(&opts)
	}

	conn, err := nats.Connect(url, nats.Name(opts.Name))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return NewNATSSinkFromConn(conn, opts.Subject), nil
}

// NewNATSSinkFromConn wraps an existing connection. Closing the sink closes conn.
func NewNATSSinkFromConn(conn *nats.Conn, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{conn: conn, subject: strings.TrimSuffix(subject, ".")}
}

// Subject returns the subject ev is published on.
func (s *NATSSink) Subject(ev core.Event) string {
	return s.subject + "." + string(ev.Type)
}

// Publish implements Sink.
func (s *NATSSink) Publish(ctx context.Context, ev core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.conn.Publish(s.Subject(ev), data); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.ID, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn.IsClosed() {
		return nil
	}
	err := s.conn.Flush()
	s.conn.Close()
	if err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}
