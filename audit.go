package gymclient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the session core.
const (
	// AuditLoginSuccess is emitted when a credential exchange commits a
	// session.
	AuditLoginSuccess = "login.success"
	// AuditLoginFailure is emitted when the server rejects credentials or
	// the endpoint is unreachable.
	AuditLoginFailure = "login.failure"
	// AuditLoginSuppressed is emitted when a second exchange is rejected by
	// the in-flight guard.
	AuditLoginSuppressed = "login.suppressed"
	// AuditRegisterSuccess is emitted when registration auto-authenticates.
	AuditRegisterSuccess = "register.success"
	// AuditRegisterFailure is emitted when registration is rejected.
	AuditRegisterFailure = "register.failure"
	// AuditLogout is emitted on explicit logout.
	AuditLogout = "logout"
	// AuditSessionRehydrated is emitted when Initialize restores a
	// persisted session without a network call.
	AuditSessionRehydrated = "session.rehydrated"
	// AuditSessionInvalidated is emitted when the server rejects the bearer
	// credential mid-session and the store is cleared.
	AuditSessionInvalidated = "session.invalidated"
	// AuditStatePersistFailure is emitted when the durable mirror could not
	// be written; the in-memory session stands but will not survive a
	// restart.
	AuditStatePersistFailure = "state.persist_failure"
)

// AuditEvent is a structured record of one session lifecycle transition.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Email     string            `json:"email,omitempty"`
	Role      Role              `json:"role,omitempty"`
	Path      string            `json:"path,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives emitted audit events.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
