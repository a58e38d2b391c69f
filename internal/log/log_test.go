package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captured(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Output: &buf, Level: level, Component: ComponentHTTP}), &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLogger_StampsComponent(t *testing.T) {
	logger, buf := captured(slog.LevelInfo)
	logger.Info("hello", FieldUserID, 1)
	assert.Contains(t, buf.String(), "component="+ComponentHTTP)
	assert.Contains(t, buf.String(), "user_id=1")

	buf.Reset()
	logger.WithComponent(ComponentWorker).Warn("moved")
	assert.Contains(t, buf.String(), "component="+ComponentWorker)
}

func TestFromContext(t *testing.T) {
	logger, _ := captured(slog.LevelInfo)
	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, ComponentApp, fallback.Component())
}

func TestStructuredLogger_HTTPEndLevel(t *testing.T) {
	logger, buf := captured(slog.LevelDebug)
	sl := NewStructuredLogger(logger)
	r := httptest.NewRequest("GET", "/api/invoices?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, "req-1", 503, 12, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "request_id=req-1")

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), r, "", 404, 3, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.NotContains(t, buf.String(), FieldRequestID)

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), r, "", 200, 3, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestStructuredLogger_LogErrorKeepsExtra(t *testing.T) {
	logger, buf := captured(slog.LevelInfo)
	extra := NewFields().WithUser(7)
	NewStructuredLogger(logger).LogError(context.Background(), "boom", errors.New("broker down"), OpPublish, extra)

	out := buf.String()
	assert.Contains(t, out, "user_id=7")
	assert.Contains(t, out, "operation="+OpPublish)
	assert.Contains(t, out, `error="broker down"`)
	_, mutated := extra[FieldOperation]
	assert.False(t, mutated)
}
