package journey

import (
	"context"
	"sync"
	"time"

	"railway.tracker.org/internal/models"
)

var day = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func tp(hour, minute int) *time.Time {
	t := at(hour, minute)
	return &t
}

func sp(s string) *string {
	return &s
}

// onTimeLeg departs and arrives as planned.
func onTimeLeg(tripID string, depH, depM, arrH, arrM int) models.Leg {
	return models.Leg{
		TripID:           tripID,
		Origin:           models.Place{Type: models.PlaceTypeStop, ID: tripID + "-from", Name: "From " + tripID},
		Destination:      models.Place{Type: models.PlaceTypeStop, ID: tripID + "-to", Name: "To " + tripID},
		Departure:        tp(depH, depM),
		PlannedDeparture: tp(depH, depM),
		Arrival:          tp(arrH, arrM),
		PlannedArrival:   tp(arrH, arrM),
		Reachable:        true,
		Line:             &models.Line{Name: "RE " + tripID},
	}
}

func walkingLeg(depH, depM, arrH, arrM int) models.Leg {
	return models.Leg{
		Origin:           models.Place{Type: models.PlaceTypeStop, ID: "walk-from"},
		Destination:      models.Place{Type: models.PlaceTypeStop, ID: "walk-to"},
		Departure:        tp(depH, depM),
		PlannedDeparture: tp(depH, depM),
		Arrival:          tp(arrH, arrM),
		PlannedArrival:   tp(arrH, arrM),
		Walking:          true,
		Reachable:        true,
	}
}

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	opts    []models.RefreshOptions
	tokens  []string
	result  models.Journey
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeRefresher) RefreshJourney(ctx context.Context, token string, opts models.RefreshOptions) (models.Journey, error) {
	f.mu.Lock()
	f.calls++
	f.opts = append(f.opts, opts)
	f.tokens = append(f.tokens, token)
	release, entered := f.release, f.entered
	result, err := f.result, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return models.Journey{}, ctx.Err()
		}
	}
	return result, err
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePersister struct {
	mu       sync.Mutex
	journeys []models.Journey
	statuses map[string]*NotifyStatus
}

func (p *fakePersister) SaveJourney(data models.Journey) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.journeys = append(p.journeys, data)
	return nil
}

func (p *fakePersister) SaveStatus(id string, status *NotifyStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statuses == nil {
		p.statuses = map[string]*NotifyStatus{}
	}
	p.statuses[id] = status
	return nil
}

// fakeClock is a settable wall clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
