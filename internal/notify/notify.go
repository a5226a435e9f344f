// Package notify delivers user-facing notifications to the host platform.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Notification ids follow "<kind>-<scope>-<journeyOrLegId>" so sinks can
// replace an earlier notification with the same id.
type Notification struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Body   string    `json:"body,omitempty"`
	SentAt time.Time `json:"sentAt"`
}

type Sink interface {
	Send(id, title, body string)
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Send(id, title, body string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		slog.String("component", "notify"),
		slog.String("notification_id", id),
		slog.String("title", title),
		slog.String("body", body))
}

// Recorder keeps the most recent notifications, newest first. Sending an id
// that is already present replaces the old entry.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	items    []Notification
	now      func() time.Time
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 100
	}
	return &Recorder{capacity: capacity, now: time.Now}
}

func (r *Recorder) Send(id, title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.items {
		if n.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}

	r.items = append([]Notification{{ID: id, Title: title, Body: body, SentAt: r.now()}}, r.items...)
	if len(r.items) > r.capacity {
		r.items = r.items[:r.capacity]
	}
}

func (r *Recorder) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Multi fans a notification out to every sink.
type Multi []Sink

func (m Multi) Send(id, title, body string) {
	for _, s := range m {
		s.Send(id, title, body)
	}
}
