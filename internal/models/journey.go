package models

import (
	"encoding/json"
	"time"
)

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Hint     string  `json:"hint,omitempty"`
}

// Journey is the server data of an itinerary. Legs are ordered and non-empty.
type Journey struct {
	ID           string `json:"id"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Legs         []Leg  `json:"legs"`
	Price        *Price `json:"price,omitempty"`
}

// UnmarshalJSON fills ID from the refresh token when the provider sends none.
func (j *Journey) UnmarshalJSON(b []byte) error {
	type plain Journey
	var decoded plain
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	if decoded.ID == "" {
		decoded.ID = decoded.RefreshToken
	}
	*j = Journey(decoded)
	return nil
}

func (j Journey) FirstLeg() (Leg, bool) {
	if len(j.Legs) == 0 {
		return Leg{}, false
	}
	return j.Legs[0], true
}

func (j Journey) LastLeg() (Leg, bool) {
	if len(j.Legs) == 0 {
		return Leg{}, false
	}
	return j.Legs[len(j.Legs)-1], true
}

// Departure is the real departure of the first leg, falling back to the planned one.
func (j Journey) Departure() *time.Time {
	leg, ok := j.FirstLeg()
	if !ok {
		return nil
	}
	if leg.Departure != nil {
		return leg.Departure
	}
	return leg.PlannedDeparture
}

// Arrival is the real arrival of the last leg, falling back to the planned one.
func (j Journey) Arrival() *time.Time {
	leg, ok := j.LastLeg()
	if !ok {
		return nil
	}
	if leg.Arrival != nil {
		return leg.Arrival
	}
	return leg.PlannedArrival
}

// JourneysResponse is one page of search results.
type JourneysResponse struct {
	Journeys   []Journey `json:"journeys"`
	EarlierRef string    `json:"earlierRef,omitempty"`
	LaterRef   string    `json:"laterRef,omitempty"`
}
