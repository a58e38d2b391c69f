package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the fixed-shape records shared across components:
// request lifecycle lines, ledger appends and operation failures.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = Default()
	}
	return &StructuredLogger{logger: logger}
}

// statusLevel maps an HTTP status onto the level its completion line uses.
func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithRequestID(requestID).
		WithClientIP(clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", f.ToSlice()...)
}

// LogHTTPEnd logs request completion; 4xx are warnings and 5xx errors.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, status int, durationMs int64, clientIP string) {
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(status, durationMs, status < http.StatusBadRequest).
		WithRequestID(requestID).
		WithClientIP(clientIP)
	sl.logger.Log(ctx, statusLevel(status), "HTTP request completed", f.ToSlice()...)
}

func (sl *StructuredLogger) LogLedgerEntry(ctx context.Context, userID, txID int64, txType, category, amount string) {
	f := NewFields().
		WithUser(userID).
		WithTransaction(txID, txType, category, amount).
		WithOperation(OpAppend)
	sl.logger.InfoContext(ctx, "Ledger transaction recorded", f.ToSlice()...)
}

// LogError logs err under operation. extra may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, extra LogFields) {
	f := NewFields()
	for k, v := range extra {
		f[k] = v
	}
	f = f.WithError(err).WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, f.ToSlice()...)
}
