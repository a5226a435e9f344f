package journey

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/notify"
)

func ids(ns []notify.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func arrivalDelayedBy(minutes int) Alert {
	leg := onTimeLeg("a", 10, 0, 10, 30)
	leg.Arrival = tp(10, 30+minutes)
	return Alert{Kind: ArrivalDelayed, Leg: leg}
}

func TestArrivalDelayThreshold(t *testing.T) {
	status := NewNotifyStatus()
	none := Event{Kind: AfterJourney}

	assert.Empty(t, status.Evaluate("j", none, []Alert{arrivalDelayedBy(3)}, at(10, 15)), "3 minutes is below the step")
	assert.Empty(t, status.ArrivalDelays, "no mutation without a notification")

	fired := status.Evaluate("j", none, []Alert{arrivalDelayedBy(6)}, at(10, 15))
	assert.Equal(t, []string{"delay-arrival-a"}, ids(fired))
	assert.Equal(t, int64(6), status.ArrivalDelays["a"])

	assert.Empty(t, status.Evaluate("j", none, []Alert{arrivalDelayedBy(7)}, at(10, 15)), "grew by only 1 minute")
	assert.Equal(t, int64(6), status.ArrivalDelays["a"])

	fired = status.Evaluate("j", none, []Alert{arrivalDelayedBy(11)}, at(10, 15))
	assert.Equal(t, []string{"delay-arrival-a"}, ids(fired))
	assert.Equal(t, int64(11), status.ArrivalDelays["a"])
}

func TestArrivalDelayScenario(t *testing.T) {
	leg := onTimeLeg("a", 10, 0, 10, 30)
	leg.Arrival = tp(10, 45)
	legs := []models.Leg{leg}
	now := at(10, 15)

	status := NewNotifyStatus()
	fired := status.Evaluate("j", EventAt(legs, now), AlertsAt(legs, now), now)

	require.Len(t, fired, 1)
	assert.Equal(t, "delay-arrival-a", fired[0].ID)
	assert.Equal(t, "Arrival delayed", fired[0].Title)
	assert.Contains(t, fired[0].Body, "15 minutes late")
	assert.Equal(t, now, fired[0].SentAt)
	assert.Equal(t, int64(15), status.ArrivalDelays["a"])

	assert.Empty(t, status.Evaluate("j", EventAt(legs, now), AlertsAt(legs, now), now))
}

func TestDuplicateAlertsFireOnce(t *testing.T) {
	status := NewNotifyStatus()
	alert := arrivalDelayedBy(10)

	fired := status.Evaluate("j", Event{Kind: AfterJourney}, []Alert{alert, alert}, at(9, 0))
	assert.Len(t, fired, 1)
}

func TestDepartureDelay(t *testing.T) {
	leg := onTimeLeg("a", 10, 0, 10, 30)
	leg.Departure = tp(10, 5)
	status := NewNotifyStatus()

	fired := status.Evaluate("j", Event{Kind: AfterJourney}, []Alert{{Kind: DepartureDelayed, Leg: leg}}, at(9, 0))
	assert.Equal(t, []string{"delay-departure-a"}, ids(fired))
	assert.Equal(t, int64(5), status.DepartureDelays["a"])

	leg.PlannedDeparture = nil
	assert.Empty(t, status.Evaluate("j", Event{Kind: AfterJourney}, []Alert{{Kind: DepartureDelayed, Leg: leg}}, at(9, 0)),
		"missing planned time is skipped")
}

func TestPlatformChange(t *testing.T) {
	leg := onTimeLeg("a", 10, 0, 10, 30)
	leg.PlannedDeparturePlatform = sp("3")
	leg.DeparturePlatform = sp("4")
	alert := Alert{Kind: DeparturePlatformChange, Leg: leg}
	status := NewNotifyStatus()
	none := Event{Kind: AfterJourney}

	assert.Equal(t, []string{"platform-departure-a"}, ids(status.Evaluate("j", none, []Alert{alert}, at(9, 0))))
	assert.Empty(t, status.Evaluate("j", none, []Alert{alert}, at(9, 0)))

	leg.DeparturePlatform = sp("5")
	fired := status.Evaluate("j", none, []Alert{{Kind: DeparturePlatformChange, Leg: leg}}, at(9, 0))
	require.Len(t, fired, 1)
	assert.Contains(t, fired[0].Body, "platform 5")
	assert.Equal(t, "5", status.DeparturePlatformChanges["a"])
}

func TestStartSoonHeadline(t *testing.T) {
	legs := []models.Leg{onTimeLeg("a", 10, 0, 10, 30)}
	status := NewNotifyStatus()

	assert.Empty(t, status.Evaluate("j", EventAt(legs, at(8, 30)), nil, at(8, 30)), "more than an hour ahead")
	assert.False(t, status.BeginningOfJourney)

	fired := status.Evaluate("j", EventAt(legs, at(9, 10)), nil, at(9, 10))
	require.Len(t, fired, 1)
	assert.Equal(t, "start-journey-j", fired[0].ID)
	assert.Contains(t, fired[0].Body, "10:00")
	assert.True(t, status.BeginningOfJourney)

	assert.Empty(t, status.Evaluate("j", EventAt(legs, at(9, 20)), nil, at(9, 20)))
}

func TestTransitionSoonHeadline(t *testing.T) {
	legs := []models.Leg{onTimeLeg("a", 10, 0, 10, 30), onTimeLeg("b", 10, 40, 11, 0)}
	legs[1].DeparturePlatform = sp("2")
	status := NewNotifyStatus()

	assert.Empty(t, status.Evaluate("j", EventAt(legs, at(10, 20)), nil, at(10, 20)))

	fired := status.Evaluate("j", EventAt(legs, at(10, 26)), nil, at(10, 26))
	require.Len(t, fired, 1)
	assert.Equal(t, "transition-leg-a", fired[0].ID)
	assert.Equal(t, "Change soon", fired[0].Title)
	assert.Contains(t, fired[0].Body, "RE b")
	assert.Contains(t, fired[0].Body, "platform 2")
	assert.True(t, status.InLegSoonTransition.Contains("a"))

	assert.Empty(t, status.Evaluate("j", EventAt(legs, at(10, 27)), nil, at(10, 27)))

	fired = status.Evaluate("j", EventAt(legs, at(10, 57)), nil, at(10, 57))
	require.Len(t, fired, 1)
	assert.Equal(t, "transition-leg-b", fired[0].ID)
	assert.Equal(t, "Arriving soon", fired[0].Title)
}

func TestUnreachableAndCancelledFireOnce(t *testing.T) {
	status := NewNotifyStatus()

	assert.Equal(t, []string{"unreachable-journey-j"}, ids(status.Evaluate("j", Event{Kind: Unreachable}, nil, at(9, 0))))
	assert.Empty(t, status.Evaluate("j", Event{Kind: Unreachable}, nil, at(9, 1)))

	assert.Equal(t, []string{"cancelled-journey-j"}, ids(status.Evaluate("j", Event{Kind: Cancelled}, nil, at(9, 2))))
	assert.Empty(t, status.Evaluate("j", Event{Kind: Cancelled}, nil, at(9, 3)))
}

func TestUnchangedStateNotifiesNothingTwice(t *testing.T) {
	leg := onTimeLeg("a", 10, 0, 10, 30)
	leg.Departure = tp(10, 8)
	leg.Arrival = tp(10, 38)
	leg.DeparturePlatform = sp("9")
	leg.PlannedDeparturePlatform = sp("8")
	legs := []models.Leg{leg}
	now := at(9, 30)

	status := NewNotifyStatus()
	first := status.Evaluate("j", EventAt(legs, now), AlertsAt(legs, now), now)
	assert.ElementsMatch(t, []string{"start-journey-j", "delay-departure-a", "platform-departure-a", "delay-arrival-a"}, ids(first))

	assert.Empty(t, status.Evaluate("j", EventAt(legs, now), AlertsAt(legs, now), now))
}

func TestNotifyStatusJSON(t *testing.T) {
	status := NewNotifyStatus()
	status.BeginningOfJourney = true
	status.InLegSoonTransition["b"] = struct{}{}
	status.InLegSoonTransition["a"] = struct{}{}
	status.ArrivalDelays["a"] = 6
	status.DeparturePlatformChanges["a"] = "4"

	raw, err := json.Marshal(status)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"in_leg_soon_transition":["a","b"]`)
	assert.Contains(t, string(raw), `"beginning_of_journey":true`)

	var decoded NotifyStatus
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, status, &decoded)

	var empty NotifyStatus
	require.NoError(t, json.Unmarshal([]byte(`{"unreachable":true}`), &empty))
	assert.NotPanics(t, func() {
		empty.Evaluate("j", Event{Kind: AfterJourney}, []Alert{arrivalDelayedBy(10)}, at(9, 0))
	})
	assert.Equal(t, int64(10), empty.ArrivalDelays["a"])
}

func TestNotifyStatusClone(t *testing.T) {
	status := NewNotifyStatus()
	status.ArrivalDelays["a"] = 5

	clone := status.Clone()
	clone.ArrivalDelays["a"] = 10
	clone.InLegSoonTransition["x"] = struct{}{}

	assert.Equal(t, int64(5), status.ArrivalDelays["a"])
	assert.False(t, status.InLegSoonTransition.Contains("x"))
}
