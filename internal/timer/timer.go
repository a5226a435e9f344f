// Package timer drives the background ticks of watched journeys.
//
// Each registered journey gets an adaptive task that sleeps for the interval
// the journey asks for and then runs one tick. While that interval is at most
// a minute, a second minutely task ticks on a fixed cadence and the adaptive
// task skips its own ticks so the journey is never refreshed twice. A journey
// that has nothing left to wait for gets one tick and then goes dormant.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"railway.tracker.org/internal/logging"
)

// Trackable is anything with a background tick and a polling interval.
// NextWakeupIn returning zero means no further ticks are needed.
type Trackable interface {
	ID() string
	NextWakeupIn(now time.Time) time.Duration
	BackgroundTask(ctx context.Context)
}

type Config struct {
	Minutely time.Duration
	Now      func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Minutely <= 0 {
		c.Minutely = time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type task struct {
	cancel context.CancelFunc
}

type Timer struct {
	config Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	adaptive map[string]*task
	minutely map[string]*task
	closed   bool

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

func New(config Config, logger *slog.Logger) *Timer {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Timer{
		config:   config.withDefaults(),
		logger:   logging.Component(logger, "timer"),
		ctx:      ctx,
		cancel:   cancel,
		adaptive: map[string]*task{},
		minutely: map[string]*task{},
	}
}

// Register starts background ticks for t, replacing any tasks already
// registered under the same id.
func (tm *Timer) Register(t Trackable) {
	id := t.ID()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.closed {
		tm.logger.Warn("register after shutdown ignored", slog.String("journey_id", id))
		return
	}

	tm.stopLocked(id)

	ctx, cancel := context.WithCancel(tm.ctx)
	self := &task{cancel: cancel}
	tm.adaptive[id] = self

	tm.wg.Add(1)
	go tm.runAdaptive(ctx, t, self)

	logging.LogOperation(tm.logger, "journey_registered", slog.String("journey_id", id))
}

// Unregister cancels both tasks for id. A tick in flight sees its context
// cancelled.
func (tm *Timer) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.stopLocked(id) {
		logging.LogOperation(tm.logger, "journey_unregistered", slog.String("journey_id", id))
	}
}

// Registered reports whether an adaptive task is active for id. Dormant
// journeys are not registered.
func (tm *Timer) Registered(id string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	_, ok := tm.adaptive[id]
	return ok
}

func (tm *Timer) HasMinutely(id string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	_, ok := tm.minutely[id]
	return ok
}

// Shutdown cancels every task and waits for them to exit.
func (tm *Timer) Shutdown() {
	tm.shutdownOnce.Do(func() {
		tm.mu.Lock()
		tm.closed = true
		tm.cancel()
		tm.adaptive = map[string]*task{}
		tm.minutely = map[string]*task{}
		tm.mu.Unlock()

		tm.wg.Wait()
		logging.LogOperation(tm.logger, "timer_shutdown_complete")
	})
}

// stopLocked must be called with mu held.
func (tm *Timer) stopLocked(id string) bool {
	stopped := false
	if t, ok := tm.adaptive[id]; ok {
		t.cancel()
		delete(tm.adaptive, id)
		stopped = true
	}
	if t, ok := tm.minutely[id]; ok {
		t.cancel()
		delete(tm.minutely, id)
		stopped = true
	}
	return stopped
}

// release removes self from tasks unless it has been replaced already.
func (tm *Timer) release(tasks map[string]*task, id string, self *task) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tasks[id] == self {
		delete(tasks, id)
	}
	self.cancel()
}

func (tm *Timer) runAdaptive(ctx context.Context, t Trackable, self *task) {
	defer tm.wg.Done()

	id := t.ID()
	logger := logging.ForJourney(tm.logger, id)

	tm.mu.Lock()
	tasks := tm.adaptive
	tm.mu.Unlock()
	defer tm.release(tasks, id, self)

	for first := true; ; first = false {
		wait := t.NextWakeupIn(tm.config.Now())
		if wait <= 0 {
			// a journey registered after its last event still gets one tick
			if first && ctx.Err() == nil {
				t.BackgroundTask(ctx)
				continue
			}
			logging.LogOperation(logger, "journey_dormant")
			return
		}
		if wait <= tm.config.Minutely {
			tm.ensureMinutely(ctx, t)
		}

		if !sleep(ctx, wait) {
			return
		}

		if tm.HasMinutely(id) {
			continue
		}
		t.BackgroundTask(ctx)
	}
}

func (tm *Timer) ensureMinutely(parent context.Context, t Trackable) {
	id := t.ID()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.closed || parent.Err() != nil {
		return
	}
	if _, ok := tm.minutely[id]; ok {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	self := &task{cancel: cancel}
	tm.minutely[id] = self

	tm.wg.Add(1)
	go tm.runMinutely(ctx, t, self, tm.minutely)
}

func (tm *Timer) runMinutely(ctx context.Context, t Trackable, self *task, tasks map[string]*task) {
	defer tm.wg.Done()

	id := t.ID()
	defer tm.release(tasks, id, self)

	ticker := time.NewTicker(tm.config.Minutely)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		t.BackgroundTask(ctx)

		wait := t.NextWakeupIn(tm.config.Now())
		if wait <= 0 || wait > tm.config.Minutely {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
