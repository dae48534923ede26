// Package audit records security-relevant auth events: registrations,
// logins, failed logins, logouts, rejected sessions and rate-limited logins.
//
// Events are written as JSON lines by a logrus logger, separate from the
// application log so they can be shipped and retained independently:
//
//	auditLog, err := audit.Open(cfg.Observability.AuditLog) // "stdout", a path, or "off"
//	defer auditLog.Close()
//
//	event := audit.NewEvent(r, audit.EventTypeAuthLoginFailed, audit.EventStatusFailure)
//	event.Email = req.Email
//	auditLog.Log(r.Context(), event)
//
// Passwords and tokens are never part of an event.
package audit
