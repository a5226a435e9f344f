package models

const (
	// PlaceTypeStop and friends are the FPTF location types returned by the backend.
	PlaceTypeStop     = "stop"
	PlaceTypeStation  = "station"
	PlaceTypeLocation = "location"
)
