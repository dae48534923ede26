package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/pethealth/pethealth/pkg/contextkeys"
	"github.com/pethealth/pethealth/pkg/httputil"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log logs an audit event
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the logger and flushes any buffered logs
	Close() error
}

// NewEvent builds an event with the request context filled in: client ip,
// user agent, request id and, when the session guard ran, the user id.
func NewEvent(r *http.Request, eventType EventType, status EventStatus) *AuditEvent {
	event := &AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
	}
	if r == nil {
		return event
	}

	ctx := r.Context()
	event.IPAddress = httputil.ClientIP(r)
	event.UserAgent = r.UserAgent()
	event.RequestID = contextkeys.GetRequestID(ctx)
	event.UserID = contextkeys.GetUserID(ctx)
	event.Method = r.Method
	event.Path = r.URL.Path
	return event
}

// NoOpLogger returns a logger that drops every event
func NoOpLogger() Logger {
	return noOpLogger{}
}

type noOpLogger struct{}

func (noOpLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }

func (noOpLogger) Close() error { return nil }
