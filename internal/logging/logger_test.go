package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger(t *testing.T) {
	t.Run("writes JSON lines", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		logger.Info("journey refreshed", slog.String("component", "journey"), slog.Int("legs", 3))

		output := buf.String()
		assert.Contains(t, output, `"level":"INFO"`)
		assert.Contains(t, output, `"msg":"journey refreshed"`)
		assert.Contains(t, output, `"component":"journey"`)
		assert.Contains(t, output, `"legs":3`)
	})

	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelWarn)

		logger.Info("quiet")
		logger.Warn("loud")

		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})
}

func TestComponentAndJourneyLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := ForJourney(Component(NewStructuredLogger(&buf, slog.LevelInfo), "timer"), "abc")

	logger.Info("tick")

	assert.Contains(t, buf.String(), `"component":"timer"`)
	assert.Contains(t, buf.String(), `"journey_id":"abc"`)
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogError(logger, "refresh failed", assert.AnError, slog.String("journey_id", "j1"))

	output := buf.String()
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"msg":"refresh failed"`)
	assert.Contains(t, output, `"error":"assert.AnError general error for testing"`)
	assert.Contains(t, output, `"journey_id":"j1"`)

	assert.NotPanics(t, func() { LogError(nil, "nothing", assert.AnError) })
	assert.NotPanics(t, func() { LogError(logger, "nil error", nil) })
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogOperation(logger, "store_flushed",
		slog.Int("journeys", 2),
		slog.Duration("duration", 0))

	output := buf.String()
	assert.Contains(t, output, `"msg":"store_flushed"`)
	assert.Contains(t, output, `"journeys":2`)
	assert.NotContains(t, output, `"duration"`)

	buf.Reset()
	LogOperation(logger, "store_flushed", slog.Duration("duration", time.Millisecond))
	assert.Contains(t, buf.String(), `"duration"`)
}

func TestLogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogHTTPRequest(logger, "GET", "/api/journeys", 200, 1.5, slog.String("trace_id", "t-1"))

	output := buf.String()
	assert.Contains(t, output, `"msg":"http_request"`)
	assert.Contains(t, output, `"method":"GET"`)
	assert.Contains(t, output, `"path":"/api/journeys"`)
	assert.Contains(t, output, `"status":200`)
	assert.Contains(t, output, `"duration_ms":1.5`)
	assert.Contains(t, output, `"trace_id":"t-1"`)
}

func TestContextLogger(t *testing.T) {
	t.Run("round trips through context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		got := FromContext(WithLogger(context.Background(), logger))
		require.NotNil(t, got)
		got.Info("from context")

		assert.Contains(t, buf.String(), "from context")
	})

	t.Run("falls back to default", func(t *testing.T) {
		require.NotNil(t, FromContext(context.Background()))
	})
}
