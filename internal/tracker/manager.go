// Package tracker ties journey handles, persistence and background ticks
// together behind the operations the API exposes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"
	"railway.tracker.org/internal/backend"
	"railway.tracker.org/internal/journey"
	"railway.tracker.org/internal/logging"
	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/notify"
	"railway.tracker.org/internal/store"
	"railway.tracker.org/internal/timer"
)

var ErrUnknownJourney = errors.New("unknown journey")

// Preferences are the user settings the manager reads.
type Preferences interface {
	Language() string
	DeleteOld() bool
	DeleteOldAfter() time.Duration
}

type Deps struct {
	Backend  backend.Client
	Store    *store.Store
	Settings Preferences
	Sink     notify.Sink
	Logger   *slog.Logger
	Now      func() time.Time
}

// SearchResult is one page of journeys found by Search.
type SearchResult struct {
	Journeys   []*journey.Journey
	EarlierRef string
	LaterRef   string
}

// Manager owns every journey handle the process knows about. Bookmarked
// journeys are held for the lifetime of the manager; everything else lives
// as long as a caller or the recently viewed list references it.
type Manager struct {
	config Config
	deps   Deps
	logger *slog.Logger

	cache  *journey.Cache
	timer  *timer.Timer
	pinned *lru.Cache[string, *journey.Journey]
	cron   *cron.Cron

	mu        sync.Mutex
	bookmarks map[string]*journey.Journey
	// watchers holds the unsubscribe funcs of watched journeys
	watchers map[string]func()

	shutdownOnce sync.Once
}

// InitManager restores bookmarks from the store, resumes background ticks
// of watched journeys and schedules the cleanup of old bookmarks.
func InitManager(config Config, deps Deps) (*Manager, error) {
	config = config.withDefaults()
	if deps.Backend == nil || deps.Store == nil || deps.Settings == nil {
		return nil, errors.New("tracker needs a backend, a store and settings")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	pinned, err := lru.New[string, *journey.Journey](config.PinnedJourneys)
	if err != nil {
		return nil, fmt.Errorf("error creating journey cache: %w", err)
	}

	logger := logging.Component(deps.Logger, "tracker")
	manager := &Manager{
		config: config,
		deps:   deps,
		logger: logger,
		cache: journey.NewCache(journey.Deps{
			Backend:   deps.Backend,
			Sink:      deps.Sink,
			Persister: deps.Store,
			Language:  deps.Settings.Language,
			Logger:    deps.Logger,
			Now:       deps.Now,
		}),
		timer:     timer.New(timer.Config{Minutely: config.Minutely, Now: deps.Now}, deps.Logger),
		pinned:    pinned,
		bookmarks: map[string]*journey.Journey{},
		watchers:  map[string]func(){},
	}

	for _, data := range deps.Store.Journeys() {
		manager.bookmarks[data.ID] = manager.cache.Restore(data)
	}
	manager.mu.Lock()
	for id, status := range deps.Store.Watched() {
		if j, ok := manager.bookmarks[id]; ok {
			manager.startWatchingLocked(j, status)
		}
	}
	manager.mu.Unlock()

	if _, err := manager.PruneOld(deps.Now()); err != nil {
		logging.LogError(logger, "initial prune failed", err)
	}

	manager.cron = cron.New()
	if _, err := manager.cron.AddFunc(config.PruneSchedule, func() {
		removed, err := manager.PruneOld(manager.deps.Now())
		if err != nil {
			logging.LogError(logger, "scheduled prune failed", err)
			return
		}
		logging.LogOperation(logger, "scheduled_prune_complete",
			slog.Int("removed", len(removed)),
			slog.Int("live_journeys", manager.cache.Len()))
	}); err != nil {
		manager.timer.Shutdown()
		return nil, fmt.Errorf("invalid prune schedule %q: %w", config.PruneSchedule, err)
	}
	manager.cron.Start()

	logging.LogOperation(logger, "tracker_initialized",
		slog.Int("bookmarks", len(manager.bookmarks)))

	return manager, nil
}

// Shutdown stops the cleanup job and all background ticks.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		<-m.cron.Stop().Done()
		m.timer.Shutdown()
		logging.LogOperation(m.logger, "tracker_shutdown_complete")
	})
}

func (m *Manager) Locations(ctx context.Context, query string) ([]models.Place, error) {
	return m.deps.Backend.Locations(ctx, query)
}

// Search finds journeys between two places. Every result becomes a shared
// handle; a journey already known keeps its identity and gets the new data.
func (m *Manager) Search(ctx context.Context, from, to models.Place, opts models.JourneysOptions) (SearchResult, error) {
	if opts.Language == "" {
		opts.Language = m.deps.Settings.Language()
	}

	resp, err := m.deps.Backend.Journeys(ctx, from, to, opts)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{
		Journeys:   make([]*journey.Journey, 0, len(resp.Journeys)),
		EarlierRef: resp.EarlierRef,
		LaterRef:   resp.LaterRef,
	}
	for _, data := range resp.Journeys {
		if data.ID == "" {
			continue
		}
		j := m.cache.GetOrCreate(data)
		m.pinned.Add(j.ID(), j)
		if m.IsBookmarked(j.ID()) {
			if err := m.deps.Store.SaveJourney(j.Data()); err != nil {
				logging.LogError(logging.ForJourney(m.logger, j.ID()), "failed to persist searched journey", err)
			}
		}
		result.Journeys = append(result.Journeys, j)
	}
	return result, nil
}

// Journey returns the handle for id if it is still alive.
func (m *Manager) Journey(id string) (*journey.Journey, error) {
	j, ok := m.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJourney, id)
	}
	m.pinned.Add(id, j)
	return j, nil
}

// Refresh is the user initiated refresh; errors are returned to the caller.
func (m *Manager) Refresh(ctx context.Context, id string) (*journey.Journey, error) {
	j, err := m.Journey(id)
	if err != nil {
		return nil, err
	}
	if err := j.Refresh(ctx); err != nil {
		return j, err
	}
	return j, nil
}

func (m *Manager) Bookmark(id string) (*journey.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookmarkLocked(id)
}

// bookmarkLocked must be called with mu held.
func (m *Manager) bookmarkLocked(id string) (*journey.Journey, error) {
	j, err := m.Journey(id)
	if err != nil {
		return nil, err
	}

	if err := m.deps.Store.Add(j.Data()); err != nil {
		return nil, err
	}
	m.bookmarks[id] = j
	logging.LogOperation(logging.ForJourney(m.logger, id), "journey_bookmarked")
	return j, nil
}

// Unbookmark forgets a bookmark and stops watching it.
func (m *Manager) Unbookmark(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.bookmarks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotBookmarked, id)
	}

	if err := m.deps.Store.Remove(id); err != nil {
		return err
	}
	m.stopWatchingLocked(j)
	delete(m.bookmarks, id)

	logging.LogOperation(logging.ForJourney(m.logger, id), "journey_unbookmarked")
	return nil
}

func (m *Manager) IsBookmarked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bookmarks[id]
	return ok
}

// Bookmarks returns the bookmarked journeys in the order they were added.
func (m *Manager) Bookmarks() []*journey.Journey {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.deps.Store.Journeys()
	out := make([]*journey.Journey, 0, len(stored))
	for _, data := range stored {
		if j, ok := m.bookmarks[data.ID]; ok {
			out = append(out, j)
		}
	}
	return out
}

// Watch turns on notifications for id, bookmarking it first if needed.
func (m *Manager) Watch(id string) (*journey.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.bookmarks[id]
	if !ok {
		var err error
		if j, err = m.bookmarkLocked(id); err != nil {
			return nil, err
		}
	}
	if j.Watched() {
		return j, nil
	}

	status := journey.NewNotifyStatus()
	if err := m.deps.Store.Watch(id, status); err != nil {
		return nil, err
	}
	m.startWatchingLocked(j, status)

	logging.LogOperation(logging.ForJourney(m.logger, id), "journey_watched")
	return j, nil
}

func (m *Manager) Unwatch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.bookmarks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotBookmarked, id)
	}

	if err := m.deps.Store.Unwatch(id); err != nil {
		return err
	}
	m.stopWatchingLocked(j)

	logging.LogOperation(logging.ForJourney(m.logger, id), "journey_unwatched")
	return nil
}

// Watched returns the watched journeys in bookmark order.
func (m *Manager) Watched() []*journey.Journey {
	var out []*journey.Journey
	for _, j := range m.Bookmarks() {
		if j.Watched() {
			out = append(out, j)
		}
	}
	return out
}

// Scheduled reports whether id currently has background ticks.
func (m *Manager) Scheduled(id string) bool {
	return m.timer.Registered(id)
}

// PruneOld removes bookmarks that arrived longer ago than the configured
// retention, when the user enabled it.
func (m *Manager) PruneOld(now time.Time) ([]string, error) {
	if !m.deps.Settings.DeleteOld() {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.deps.Store.Prune(now, m.deps.Settings.DeleteOldAfter())
	if err != nil {
		return removed, err
	}
	for _, id := range removed {
		j, ok := m.bookmarks[id]
		if !ok {
			m.timer.Unregister(id)
			continue
		}
		m.stopWatchingLocked(j)
		delete(m.bookmarks, id)
	}
	return removed, nil
}

// startWatchingLocked must be called with mu held.
func (m *Manager) startWatchingLocked(j *journey.Journey, status *journey.NotifyStatus) {
	id := j.ID()
	j.SetNotifyStatus(status)
	if _, ok := m.watchers[id]; !ok {
		m.watchers[id] = j.Subscribe(func(state journey.State) {
			m.rearm(j, state)
		})
	}
	m.timer.Register(j)
}

// stopWatchingLocked must be called with mu held.
func (m *Manager) stopWatchingLocked(j *journey.Journey) {
	id := j.ID()
	m.timer.Unregister(id)
	if unsubscribe, ok := m.watchers[id]; ok {
		unsubscribe()
		delete(m.watchers, id)
	}
	j.SetNotifyStatus(nil)
}

// rearm resumes the ticks of a watched journey that went dormant once new
// data gives it an upcoming event again.
func (m *Manager) rearm(j *journey.Journey, state journey.State) {
	if state.Event.Terminal() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := j.ID()
	if _, watched := m.watchers[id]; !watched || m.timer.Registered(id) {
		return
	}
	m.timer.Register(j)
	logging.LogOperation(logging.ForJourney(m.logger, id), "journey_rearmed")
}
