package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railway.tracker.org/internal/logging"
)

func TestRecorder(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		r := NewRecorder(10)
		r.Send("a", "A", "")
		r.Send("b", "B", "body")

		recent := r.Recent()
		require.Len(t, recent, 2)
		assert.Equal(t, "b", recent[0].ID)
		assert.Equal(t, "body", recent[0].Body)
		assert.False(t, recent[0].SentAt.IsZero())
	})

	t.Run("same id replaces", func(t *testing.T) {
		r := NewRecorder(10)
		r.Send("delay-arrival-leg1", "Delayed", "5 minutes")
		r.Send("other", "Other", "")
		r.Send("delay-arrival-leg1", "Delayed", "10 minutes")

		recent := r.Recent()
		require.Len(t, recent, 2)
		assert.Equal(t, "delay-arrival-leg1", recent[0].ID)
		assert.Equal(t, "10 minutes", recent[0].Body)
	})

	t.Run("bounded", func(t *testing.T) {
		r := NewRecorder(2)
		r.Send("a", "A", "")
		r.Send("b", "B", "")
		r.Send("c", "C", "")

		recent := r.Recent()
		require.Len(t, recent, 2)
		assert.Equal(t, "c", recent[0].ID)
		assert.Equal(t, "b", recent[1].ID)
	})
}

func TestLogSinkAndMulti(t *testing.T) {
	var buf bytes.Buffer
	recorder := NewRecorder(5)
	sink := Multi{LogSink{Logger: logging.NewStructuredLogger(&buf, slog.LevelInfo)}, recorder}

	sink.Send("start-journey-j1", "Your trip starts soon", "Berlin Hbf at 10:00")

	assert.Contains(t, buf.String(), `"notification_id":"start-journey-j1"`)
	assert.Contains(t, buf.String(), `"title":"Your trip starts soon"`)
	assert.Len(t, recorder.Recent(), 1)
}
