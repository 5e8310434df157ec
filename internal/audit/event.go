package audit

import (
	"context"
	"time"
)

// Event is one security-relevant outcome of an engine operation. It never
// carries passwords, digests, or token values.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Device    string            `json:"device,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PartitionKey groups the events of one account. Events without a user (a
// failed login for an unknown name) are grouped by type.
func (e Event) PartitionKey() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.EventType
}

// Sink receives audit events. Emit must not retain ctx past the call.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}
