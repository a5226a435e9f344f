package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"railway.tracker.org/internal/models"
)

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// If the key is not present it returns 0; if the value is invalid it records
// a message in fieldErrors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return f, fieldErrors
}

// ParseIntParam works like ParseFloatParam and returns def when key is absent.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return def, fieldErrors
	}
	return n, fieldErrors
}

// ParseTimeParam accepts RFC 3339 timestamps and epoch milliseconds. An empty
// value yields nil.
func ParseTimeParam(params url.Values, key string, fieldErrors map[string][]string) (*time.Time, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return nil, fieldErrors
	}

	if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
		t := time.UnixMilli(ms)
		return &t, fieldErrors
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, fieldErrors
	}

	fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	return nil, fieldErrors
}

// ParsePlaceParams reads a place given as prefix=<stop id> or as
// prefix.latitude, prefix.longitude and an optional prefix.name.
func ParsePlaceParams(params url.Values, prefix string, fieldErrors map[string][]string) (models.Place, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	if id := strings.TrimSpace(params.Get(prefix)); id != "" {
		if err := ValidateStopID(id); err != nil {
			fieldErrors[prefix] = append(fieldErrors[prefix], err.Error())
		}
		return models.Place{Type: models.PlaceTypeStop, ID: id}, fieldErrors
	}

	latKey, lonKey := prefix+".latitude", prefix+".longitude"
	if params.Get(latKey) == "" || params.Get(lonKey) == "" {
		fieldErrors[prefix] = append(fieldErrors[prefix], fmt.Sprintf("Field %q or its coordinates are required.", prefix))
		return models.Place{}, fieldErrors
	}

	lat, fieldErrors := ParseFloatParam(params, latKey, fieldErrors)
	lon, fieldErrors := ParseFloatParam(params, lonKey, fieldErrors)
	if err := ValidateLatitude(lat); err != nil {
		fieldErrors[latKey] = append(fieldErrors[latKey], err.Error())
	}
	if err := ValidateLongitude(lon); err != nil {
		fieldErrors[lonKey] = append(fieldErrors[lonKey], err.Error())
	}

	return models.Place{
		Type:      models.PlaceTypeLocation,
		Address:   SanitizeInput(params.Get(prefix + ".name")),
		Latitude:  &lat,
		Longitude: &lon,
	}, fieldErrors
}
