package journey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"railway.tracker.org/internal/logging"
	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/notify"
)

var (
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrNoRefreshToken    = errors.New("journey has no refresh token")
)

// Refresher re-fetches live data for a journey.
type Refresher interface {
	RefreshJourney(ctx context.Context, token string, opts models.RefreshOptions) (models.Journey, error)
}

// Persister stores refreshed journey data and notification state. SaveJourney
// is expected to ignore journeys that are not bookmarked.
type Persister interface {
	SaveJourney(data models.Journey) error
	SaveStatus(journeyID string, status *NotifyStatus) error
}

// Deps are the collaborators every journey handle is built with.
type Deps struct {
	Backend   Refresher
	Sink      notify.Sink
	Persister Persister
	Language  func() string
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Language == nil {
		d.Language = func() string { return "en" }
	}
	return d
}

// State is the recomputed (Event, Alerts) pair published to observers.
type State struct {
	At     time.Time
	Event  Event
	Alerts []Alert
}

// Journey is the long-lived identity of an itinerary. Refreshes replace its
// data in place so every holder of the handle sees the update.
type Journey struct {
	id     string
	deps   Deps
	logger *slog.Logger

	mu            sync.RWMutex
	data          models.Journey
	lastRefreshed time.Time
	refreshing    bool
	status        *NotifyStatus

	observersMu  sync.Mutex
	observers    map[int]func(State)
	nextObserver int
}

func newJourney(data models.Journey, refreshedAt time.Time, deps Deps) *Journey {
	deps = deps.withDefaults()
	return &Journey{
		id:            data.ID,
		deps:          deps,
		logger:        logging.ForJourney(logging.Component(deps.Logger, "journey"), data.ID),
		data:          data,
		lastRefreshed: refreshedAt,
		observers:     map[int]func(State){},
	}
}

func (j *Journey) ID() string {
	return j.id
}

// Data returns a copy of the current server data.
func (j *Journey) Data() models.Journey {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.data
}

// LastRefreshed is zero when the data has never been fetched by this process.
func (j *Journey) LastRefreshed() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastRefreshed
}

func (j *Journey) IsRefreshing() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.refreshing
}

// Update replaces legs and price with freshly fetched data. The identity
// (id, observers, notification state) is kept.
func (j *Journey) Update(data models.Journey) {
	now := j.deps.Now()

	j.mu.Lock()
	j.replace(data, now)
	legs := j.data.Legs
	j.mu.Unlock()

	j.publish(stateAt(legs, now))
}

// replace must be called with mu held.
func (j *Journey) replace(data models.Journey, refreshedAt time.Time) {
	data.ID = j.id
	if data.RefreshToken == "" {
		data.RefreshToken = j.data.RefreshToken
	}
	j.data = data
	j.lastRefreshed = refreshedAt
}

// Refresh fetches live data for the journey. On failure the previous data is
// kept and the error returned; nothing is retried here.
func (j *Journey) Refresh(ctx context.Context) error {
	j.mu.Lock()
	if j.refreshing {
		j.mu.Unlock()
		return ErrRefreshInProgress
	}
	token := j.data.RefreshToken
	if token == "" {
		j.mu.Unlock()
		return ErrNoRefreshToken
	}
	j.refreshing = true
	j.mu.Unlock()

	start := j.deps.Now()
	data, err := j.deps.Backend.RefreshJourney(ctx, token, models.RefreshOptions{
		Stopovers: true,
		Language:  j.deps.Language(),
	})
	now := j.deps.Now()

	j.mu.Lock()
	j.refreshing = false
	if err == nil {
		j.replace(data, now)
	}
	snapshot := j.data
	j.mu.Unlock()

	if err != nil {
		return fmt.Errorf("refresh journey %s: %w", j.id, err)
	}

	logging.LogOperation(j.logger, "journey_refreshed",
		slog.Int("legs", len(snapshot.Legs)),
		slog.Duration("duration", now.Sub(start)))

	if j.deps.Persister != nil {
		if err := j.deps.Persister.SaveJourney(snapshot); err != nil {
			logging.LogError(j.logger, "failed to persist refreshed journey", err)
		}
	}

	j.publish(stateAt(snapshot.Legs, now))
	return nil
}

// ShouldRefresh reports whether the data is stale given how close the next
// event is.
func (j *Journey) ShouldRefresh(now time.Time) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return shouldRefresh(EventAt(j.data.Legs, now), j.lastRefreshed, now)
}

// NextWakeupIn is the interval until the background task should run again.
// Zero means the journey has no next event and needs no further ticks.
func (j *Journey) NextWakeupIn(now time.Time) time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return nextWakeupIn(EventAt(j.data.Legs, now), now)
}

// State computes the current event and alerts.
func (j *Journey) State(now time.Time) State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return stateAt(j.data.Legs, now)
}

func stateAt(legs []models.Leg, now time.Time) State {
	return State{At: now, Event: EventAt(legs, now), Alerts: AlertsAt(legs, now)}
}

// BackgroundTask runs one tick: refresh when due, recompute state, notify
// about newly crossed thresholds and publish the state. Refresh errors are
// logged and left for the next tick.
func (j *Journey) BackgroundTask(ctx context.Context) {
	now := j.deps.Now()
	if j.ShouldRefresh(now) {
		if err := j.Refresh(ctx); err != nil {
			logging.LogError(j.logger, "background refresh failed", err)
		}
		now = j.deps.Now()
	}

	j.mu.Lock()
	state := stateAt(j.data.Legs, now)
	var sent []notify.Notification
	var status *NotifyStatus
	if j.status != nil {
		sent = j.status.Evaluate(j.id, state.Event, state.Alerts, now)
		if len(sent) > 0 {
			status = j.status.Clone()
		}
	}
	j.mu.Unlock()

	for _, n := range sent {
		if j.deps.Sink != nil {
			j.deps.Sink.Send(n.ID, n.Title, n.Body)
		}
	}
	if status != nil && j.deps.Persister != nil {
		if err := j.deps.Persister.SaveStatus(j.id, status); err != nil {
			logging.LogError(j.logger, "failed to persist notify status", err)
		}
	}

	j.publish(state)
}

// SetNotifyStatus marks the journey as watched (non-nil) or unwatched (nil).
func (j *Journey) SetNotifyStatus(status *NotifyStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

// NotifyStatus returns a copy of the notification state, or nil when unwatched.
func (j *Journey) NotifyStatus() *NotifyStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.status == nil {
		return nil
	}
	return j.status.Clone()
}

func (j *Journey) Watched() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status != nil
}

// Subscribe registers fn for every published State and returns a function
// removing it.
func (j *Journey) Subscribe(fn func(State)) func() {
	j.observersMu.Lock()
	defer j.observersMu.Unlock()

	id := j.nextObserver
	j.nextObserver++
	j.observers[id] = fn

	return func() {
		j.observersMu.Lock()
		defer j.observersMu.Unlock()
		delete(j.observers, id)
	}
}

func (j *Journey) publish(state State) {
	j.observersMu.Lock()
	fns := make([]func(State), 0, len(j.observers))
	for _, fn := range j.observers {
		fns = append(fns, fn)
	}
	j.observersMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
