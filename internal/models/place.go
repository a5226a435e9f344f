package models

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// Place is a station, stop, address or point of interest.
type Place struct {
	Type      string   `json:"type"`
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasLocation reports whether the place carries coordinates.
func (p Place) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Point returns the place as an orb point (lon, lat). Callers check HasLocation first.
func (p Place) Point() orb.Point {
	if !p.HasLocation() {
		return orb.Point{}
	}
	return orb.Point{*p.Longitude, *p.Latitude}
}

// DisplayName is the name, falling back to the address.
func (p Place) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Address
}

// UnmarshalJSON accepts both flat coordinates and the nested "location"
// object stops and stations use on the wire.
func (p *Place) UnmarshalJSON(b []byte) error {
	type plain Place
	var raw struct {
		plain
		Location *struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"location"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*p = Place(raw.plain)
	if !p.HasLocation() && raw.Location != nil {
		p.Latitude = raw.Location.Latitude
		p.Longitude = raw.Location.Longitude
	}
	return nil
}
