package models

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/twpayne/go-polyline"
)

type Line struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Product     string `json:"product,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// Stopover is an intermediate stop of a leg.
type Stopover struct {
	Stop                     Place      `json:"stop"`
	Arrival                  *time.Time `json:"arrival,omitempty"`
	PlannedArrival           *time.Time `json:"plannedArrival,omitempty"`
	Departure                *time.Time `json:"departure,omitempty"`
	PlannedDeparture         *time.Time `json:"plannedDeparture,omitempty"`
	ArrivalPlatform          *string    `json:"arrivalPlatform,omitempty"`
	PlannedArrivalPlatform   *string    `json:"plannedArrivalPlatform,omitempty"`
	DeparturePlatform        *string    `json:"departurePlatform,omitempty"`
	PlannedDeparturePlatform *string    `json:"plannedDeparturePlatform,omitempty"`
	Cancelled                bool       `json:"cancelled,omitempty"`
}

type Remark struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Summary string `json:"summary,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Leg is one vehicle or walking segment of a journey. Legs are replaced
// wholesale on refresh and never mutated in place.
type Leg struct {
	TripID                   string     `json:"tripId,omitempty"`
	Origin                   Place      `json:"origin"`
	Destination              Place      `json:"destination"`
	Departure                *time.Time `json:"departure,omitempty"`
	PlannedDeparture         *time.Time `json:"plannedDeparture,omitempty"`
	Arrival                  *time.Time `json:"arrival,omitempty"`
	PlannedArrival           *time.Time `json:"plannedArrival,omitempty"`
	DeparturePlatform        *string    `json:"departurePlatform,omitempty"`
	PlannedDeparturePlatform *string    `json:"plannedDeparturePlatform,omitempty"`
	ArrivalPlatform          *string    `json:"arrivalPlatform,omitempty"`
	PlannedArrivalPlatform   *string    `json:"plannedArrivalPlatform,omitempty"`
	Walking                  bool       `json:"walking,omitempty"`
	Distance                 *int       `json:"distance,omitempty"`
	Reachable                bool       `json:"reachable"`
	Cancelled                bool       `json:"cancelled,omitempty"`
	Line                     *Line      `json:"line,omitempty"`
	Direction                string     `json:"direction,omitempty"`
	Stopovers                []Stopover `json:"stopovers,omitempty"`
	Remarks                  []Remark   `json:"remarks,omitempty"`
}

// UnmarshalJSON defaults Reachable to true; most providers omit the field
// unless a connection is at risk.
func (l *Leg) UnmarshalJSON(b []byte) error {
	type plain Leg
	decoded := plain{Reachable: true}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	*l = Leg(decoded)
	return nil
}

// ID identifies the leg for alert and notification bookkeeping.
func (l Leg) ID() string {
	if l.TripID != "" {
		return l.TripID
	}
	id := l.Origin.ID
	if id == "" {
		id = l.Origin.DisplayName()
	}
	if l.PlannedDeparture != nil {
		id += "@" + l.PlannedDeparture.UTC().Format(time.RFC3339)
	}
	return id
}

// DepartureDelay is departure - plannedDeparture. ok is false when either is unknown.
func (l Leg) DepartureDelay() (time.Duration, bool) {
	if l.Departure == nil || l.PlannedDeparture == nil {
		return 0, false
	}
	return l.Departure.Sub(*l.PlannedDeparture), true
}

// ArrivalDelay is arrival - plannedArrival. ok is false when either is unknown.
func (l Leg) ArrivalDelay() (time.Duration, bool) {
	if l.Arrival == nil || l.PlannedArrival == nil {
		return 0, false
	}
	return l.Arrival.Sub(*l.PlannedArrival), true
}

// Path is the leg geometry through origin, stopovers and destination,
// skipping places without coordinates.
func (l Leg) Path() orb.LineString {
	path := make(orb.LineString, 0, len(l.Stopovers)+2)
	add := func(p Place) {
		if !p.HasLocation() {
			return
		}
		pt := p.Point()
		if n := len(path); n > 0 && path[n-1] == pt {
			return
		}
		path = append(path, pt)
	}

	add(l.Origin)
	for _, s := range l.Stopovers {
		add(s.Stop)
	}
	add(l.Destination)
	return path
}

// PathLength is the geodesic length of Path in metres.
func (l Leg) PathLength() float64 {
	return geo.Length(l.Path())
}

// EncodedPolyline encodes Path in the Google polyline format (lat, lon order).
func (l Leg) EncodedPolyline() string {
	path := l.Path()
	if len(path) == 0 {
		return ""
	}
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}
