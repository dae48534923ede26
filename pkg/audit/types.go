package audit

import "time"

// EventType represents the type of audit event
type EventType string

const (
	EventTypeAuthRegister          EventType = "auth.register"
	EventTypeAuthLogin             EventType = "auth.login"
	EventTypeAuthLoginFailed       EventType = "auth.login_failed"
	EventTypeAuthLogout            EventType = "auth.logout"
	EventTypeAuthTokenValidateFail EventType = "auth.token_validate_fail"
	EventTypeAuthRateLimited       EventType = "auth.rate_limited"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`

	Message string `json:"message,omitempty"`
}
