// Package logging provides structured logging for the gateway.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Logger wraps a logrus entry with service metadata attached.
type Logger struct {
	*logrus.Entry
}

// New creates a logger for the named service. In production the output is
// JSON; everywhere else a human-readable text format is used.
func New(service, level, env string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	if strings.EqualFold(env, "production") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &Logger{Entry: l.WithField("service", service)}
}

// NewDefault returns an info-level text logger, used when no configuration
// is available yet.
func NewDefault(service string) *Logger {
	return New(service, "info", "development")
}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ForRequest returns a logger with the request ID from ctx attached.
func (l *Logger) ForRequest(ctx context.Context) *Logger {
	if id := RequestID(ctx); id != "" {
		return &Logger{Entry: l.WithField("request_id", id)}
	}
	return l
}

// LogRequest records a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.ForRequest(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	if status >= 500 {
		entry.Error("request")
		return
	}
	entry.Info("request")
}
