package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T {
	return &v
}

func TestLegID(t *testing.T) {
	planned := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	t.Run("trip id wins", func(t *testing.T) {
		leg := Leg{TripID: "trip-1", Origin: Place{ID: "A"}, PlannedDeparture: &planned}
		assert.Equal(t, "trip-1", leg.ID())
	})

	t.Run("walking legs use origin and planned departure", func(t *testing.T) {
		leg := Leg{Walking: true, Origin: Place{ID: "A"}, PlannedDeparture: &planned}
		assert.Equal(t, "A@2026-10-16T08:00:00Z", leg.ID())
	})

	t.Run("address origin", func(t *testing.T) {
		leg := Leg{Walking: true, Origin: Place{Address: "Main St 1"}}
		assert.Equal(t, "Main St 1", leg.ID())
	})
}

func TestLegDelays(t *testing.T) {
	planned := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	actual := planned.Add(7 * time.Minute)

	leg := Leg{Departure: &actual, PlannedDeparture: &planned, PlannedArrival: &planned}

	delay, ok := leg.DepartureDelay()
	assert.True(t, ok)
	assert.Equal(t, 7*time.Minute, delay)

	_, ok = leg.ArrivalDelay()
	assert.False(t, ok, "missing real arrival")
}

func TestLegGeometry(t *testing.T) {
	leg := Leg{
		Origin: Place{ID: "A", Latitude: ptr(38.5), Longitude: ptr(-120.2)},
		Stopovers: []Stopover{
			{Stop: Place{ID: "A", Latitude: ptr(38.5), Longitude: ptr(-120.2)}},
			{Stop: Place{ID: "B", Latitude: ptr(40.7), Longitude: ptr(-120.95)}},
			{Stop: Place{ID: "X"}},
		},
		Destination: Place{ID: "C", Latitude: ptr(43.252), Longitude: ptr(-126.453)},
	}

	path := leg.Path()
	assert.Len(t, path, 3, "duplicates and places without coordinates are skipped")
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", leg.EncodedPolyline())
	assert.Greater(t, leg.PathLength(), 500_000.0)

	assert.Empty(t, Leg{}.EncodedPolyline())
	assert.Zero(t, Leg{}.PathLength())
}
