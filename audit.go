package jwtgate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditOutcome classifies an audited admission.
type AuditOutcome string

// Audit outcomes, as written to the outcome field.
const (
	AuditGranted   AuditOutcome = "admission_granted"
	AuditRejected  AuditOutcome = "admission_rejected"
	AuditHookError AuditOutcome = "admission_error"
)

// AuditEvent describes one audited admission. It never carries the raw token.
type AuditEvent struct {
	ID       string       `json:"id"`
	Time     time.Time    `json:"time"`
	Outcome  AuditOutcome `json:"outcome"`
	Method   string       `json:"method"`
	Path     string       `json:"path"`
	RemoteIP string       `json:"remote_ip,omitempty"`
	Subject  string       `json:"sub,omitempty"`
	TokenID  string       `json:"jti,omitempty"`
	// Class is "unauthorized" or "forbidden" for rejections.
	Class  string `json:"class,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// AuditSink receives audit events on the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc func(ctx context.Context, event AuditEvent)

// Emit calls f.
func (f AuditSinkFunc) Emit(ctx context.Context, event AuditEvent) {
	f(ctx, event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink hands events to a consumer through a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink returns a ChannelSink with room for buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan AuditEvent, max(buffer, 1))}
}

// Emit blocks until the event is buffered or ctx ends.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the buffer.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriterSink writes to w. A nil w yields a sink that drops events.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

// Emit encodes event as one line. Write errors are ignored.
func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	_ = s.enc.Encode(event)
	s.mu.Unlock()
}
