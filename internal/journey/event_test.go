package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railway.tracker.org/internal/models"
)

func TestEventAtSingleLeg(t *testing.T) {
	legs := []models.Leg{onTimeLeg("a", 10, 0, 10, 30)}

	tests := []struct {
		name string
		now  time.Time
		want EventKind
	}{
		{"before departure", at(9, 0), BeforeJourney},
		{"riding", at(10, 15), InLeg},
		{"arrived", at(11, 0), AfterJourney},
		{"exactly at departure", at(10, 0), InLeg},
		{"exactly at arrival", at(10, 30), AfterJourney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventAt(legs, tt.now).Kind)
		})
	}
}

func TestEventAtWithTransfer(t *testing.T) {
	legs := []models.Leg{
		onTimeLeg("a", 10, 0, 10, 30),
		walkingLeg(10, 30, 10, 35),
		onTimeLeg("b", 10, 45, 11, 30),
	}

	t.Run("in first leg points at next vehicle leg", func(t *testing.T) {
		event := EventAt(legs, at(10, 15))
		require.Equal(t, InLeg, event.Kind)
		assert.Equal(t, "a", event.Leg.TripID)
		require.NotNil(t, event.Next)
		assert.Equal(t, "b", event.Next.TripID, "walking legs are skipped")
	})

	t.Run("walking leg is not an in-leg event", func(t *testing.T) {
		event := EventAt(legs, at(10, 32))
		require.Equal(t, TransitionTo, event.Kind)
		assert.Equal(t, "b", event.Leg.TripID)
	})

	t.Run("last leg has no next", func(t *testing.T) {
		event := EventAt(legs, at(11, 0))
		require.Equal(t, InLeg, event.Kind)
		assert.Nil(t, event.Next)
	})

	t.Run("missing real times are skipped", func(t *testing.T) {
		unknown := onTimeLeg("c", 9, 0, 9, 30)
		unknown.Departure, unknown.Arrival = nil, nil
		event := EventAt(append([]models.Leg{unknown}, legs...), at(8, 0))
		assert.Equal(t, TransitionTo, event.Kind, "leg a is not the first leg any more")
	})
}

func TestEventAtUnreachableAndCancelled(t *testing.T) {
	unreachable := onTimeLeg("a", 10, 0, 10, 30)
	unreachable.Reachable = false
	cancelled := onTimeLeg("b", 11, 0, 11, 30)
	cancelled.Cancelled = true

	for _, now := range []time.Time{at(8, 0), at(10, 15), at(23, 0)} {
		assert.Equal(t, Unreachable, EventAt([]models.Leg{unreachable, cancelled}, now).Kind)
		assert.Equal(t, Cancelled, EventAt([]models.Leg{onTimeLeg("x", 9, 0, 9, 30), cancelled}, now).Kind)
	}
}

func TestEventAtIsMonotonic(t *testing.T) {
	legs := []models.Leg{
		onTimeLeg("a", 10, 0, 10, 30),
		walkingLeg(10, 30, 10, 35),
		onTimeLeg("b", 10, 45, 11, 30),
		onTimeLeg("c", 11, 40, 12, 10),
	}
	rank := map[EventKind]int{BeforeJourney: 0, InLeg: 1, TransitionTo: 1, AfterJourney: 2}

	last := 0
	lastLeg := -1
	for now := at(9, 0); now.Before(at(13, 0)); now = now.Add(time.Minute) {
		event := EventAt(legs, now)
		r, ok := rank[event.Kind]
		require.True(t, ok, "unexpected kind %s", event.Kind)
		require.GreaterOrEqual(t, r, last, "event went backwards at %s", now)
		last = r

		if event.Leg != nil {
			idx := -1
			for i := range legs {
				if &legs[i] == event.Leg {
					idx = i
				}
			}
			require.GreaterOrEqual(t, idx, lastLeg, "leg went backwards at %s", now)
			lastLeg = idx
		}
	}
	assert.Equal(t, 2, last)
}

func TestEventProjections(t *testing.T) {
	a := onTimeLeg("a", 10, 0, 10, 30)
	b := onTimeLeg("b", 10, 45, 11, 30)

	tests := []struct {
		name    string
		event   Event
		current *models.Leg
		next    *models.Leg
		action  *time.Time
	}{
		{"before", Event{Kind: BeforeJourney, Leg: &a}, nil, &a, a.Departure},
		{"in leg", Event{Kind: InLeg, Leg: &a, Next: &b}, &a, &b, a.Arrival},
		{"transition", Event{Kind: TransitionTo, Leg: &b}, nil, &b, b.Departure},
		{"after", Event{Kind: AfterJourney}, nil, nil, nil},
		{"unreachable", Event{Kind: Unreachable}, nil, nil, nil},
		{"cancelled", Event{Kind: Cancelled}, nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.current, tt.event.CurrentLeg())
			assert.Equal(t, tt.next, tt.event.NextLeg())
			assert.Equal(t, tt.action, tt.event.TimeOfNextAction())
			assert.Equal(t, tt.action == nil, tt.event.Terminal())
		})
	}
}

func TestEventKindText(t *testing.T) {
	text, err := InLeg.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "in_leg", string(text))
	assert.Equal(t, "event_kind(42)", EventKind(42).String())
}
