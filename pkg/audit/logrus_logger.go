package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusLogger writes one JSON line per event through logrus
type LogrusLogger struct {
	log    *logrus.Logger
	closer io.Closer
}

// NewLogrusLogger creates an audit logger writing JSON lines to out
func NewLogrusLogger(out io.Writer) *LogrusLogger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})
	return &LogrusLogger{log: log}
}

// Open returns the audit logger for a target: "" or "off" disables auditing,
// "stdout" and "stderr" write to the process streams, anything else is a
// file path opened for append.
func Open(target string) (Logger, error) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "off", "none":
		return NoOpLogger(), nil
	case "stdout":
		return NewLogrusLogger(os.Stdout), nil
	case "stderr":
		return NewLogrusLogger(os.Stderr), nil
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	l := NewLogrusLogger(f)
	l.closer = f
	return l, nil
}

func (l *LogrusLogger) Log(ctx context.Context, event *AuditEvent) error {
	fields := logrus.Fields{
		"audit":      true,
		"event_type": string(event.EventType),
		"status":     string(event.Status),
	}
	addField(fields, "user_id", event.UserID)
	addField(fields, "email", event.Email)
	addField(fields, "ip_address", event.IPAddress)
	addField(fields, "user_agent", event.UserAgent)
	addField(fields, "request_id", event.RequestID)
	addField(fields, "method", event.Method)
	addField(fields, "path", event.Path)

	entry := l.log.WithContext(ctx).WithTime(event.Timestamp).WithFields(fields)
	message := event.Message
	if message == "" {
		message = string(event.EventType)
	}

	if event.Status == EventStatusSuccess {
		entry.Info(message)
	} else {
		entry.Warn(message)
	}
	return nil
}

func (l *LogrusLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func addField(fields logrus.Fields, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
