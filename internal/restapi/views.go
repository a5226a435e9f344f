package restapi

import (
	"time"

	"railway.tracker.org/internal/journey"
	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/utils"
)

type legView struct {
	models.Leg
	ID                    string  `json:"id"`
	DepartureDelayMinutes *int64  `json:"departureDelayMinutes,omitempty"`
	ArrivalDelayMinutes   *int64  `json:"arrivalDelayMinutes,omitempty"`
	Polyline              string  `json:"polyline,omitempty"`
	PathLengthMeters      float64 `json:"pathLengthMeters,omitempty"`
	Heading               string  `json:"heading,omitempty"`
}

type eventView struct {
	Kind         journey.EventKind `json:"kind"`
	LegID        string            `json:"legId,omitempty"`
	NextLegID    string            `json:"nextLegId,omitempty"`
	NextActionAt *time.Time        `json:"nextActionAt,omitempty"`
}

type alertView struct {
	Kind  journey.AlertKind `json:"kind"`
	LegID string            `json:"legId"`
}

type journeyView struct {
	ID            string                `json:"id"`
	RefreshToken  string                `json:"refreshToken,omitempty"`
	Legs          []legView             `json:"legs"`
	Price         *models.Price         `json:"price,omitempty"`
	Departure     *time.Time            `json:"departure,omitempty"`
	Arrival       *time.Time            `json:"arrival,omitempty"`
	LastRefreshed *time.Time            `json:"lastRefreshed,omitempty"`
	Refreshing    bool                  `json:"refreshing"`
	Bookmarked    bool                  `json:"bookmarked"`
	Watched       bool                  `json:"watched"`
	Event         eventView             `json:"event"`
	Alerts        []alertView           `json:"alerts"`
	NotifyStatus  *journey.NotifyStatus `json:"notifyStatus,omitempty"`
}

type searchView struct {
	Journeys   []journeyView `json:"journeys"`
	EarlierRef string        `json:"earlierRef,omitempty"`
	LaterRef   string        `json:"laterRef,omitempty"`
}

func minutes(d time.Duration, ok bool) *int64 {
	if !ok {
		return nil
	}
	m := int64(d / time.Minute)
	return &m
}

func newLegView(leg models.Leg) legView {
	view := legView{
		Leg:                   leg,
		ID:                    leg.ID(),
		DepartureDelayMinutes: minutes(leg.DepartureDelay()),
		ArrivalDelayMinutes:   minutes(leg.ArrivalDelay()),
	}
	if len(leg.Path()) >= 2 {
		view.Polyline = leg.EncodedPolyline()
		view.PathLengthMeters = leg.PathLength()
	}
	if leg.Origin.HasLocation() && leg.Destination.HasLocation() {
		view.Heading = utils.CompassDirection(leg.Origin.Point(), leg.Destination.Point())
	}
	return view
}

func newEventView(event journey.Event) eventView {
	view := eventView{Kind: event.Kind, NextActionAt: event.TimeOfNextAction()}
	if event.Leg != nil {
		view.LegID = event.Leg.ID()
	}
	if event.Next != nil {
		view.NextLegID = event.Next.ID()
	}
	return view
}

// newJourneyView renders j as seen at now. bookmarked is passed in because
// only the tracker knows it.
func newJourneyView(j *journey.Journey, now time.Time, bookmarked bool) journeyView {
	data := j.Data()
	state := j.State(now)

	view := journeyView{
		ID:           data.ID,
		RefreshToken: data.RefreshToken,
		Legs:         make([]legView, len(data.Legs)),
		Price:        data.Price,
		Departure:    data.Departure(),
		Arrival:      data.Arrival(),
		Refreshing:   j.IsRefreshing(),
		Bookmarked:   bookmarked,
		Watched:      j.Watched(),
		Event:        newEventView(state.Event),
		Alerts:       make([]alertView, 0, len(state.Alerts)),
		NotifyStatus: j.NotifyStatus(),
	}
	for i, leg := range data.Legs {
		view.Legs[i] = newLegView(leg)
	}

	seen := map[string]bool{}
	for _, alert := range state.Alerts {
		if seen[alert.Key()] {
			continue
		}
		seen[alert.Key()] = true
		view.Alerts = append(view.Alerts, alertView{Kind: alert.Kind, LegID: alert.Leg.ID()})
	}

	if last := j.LastRefreshed(); !last.IsZero() {
		view.LastRefreshed = &last
	}
	return view
}
