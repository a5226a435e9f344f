package models

import (
	"fmt"
	"time"
)

type TimeType string

const (
	TimeTypeDeparture TimeType = "departure"
	TimeTypeArrival   TimeType = "arrival"
)

// ParseTimeType accepts "", "departure" or "arrival".
func ParseTimeType(raw string) (TimeType, error) {
	switch TimeType(raw) {
	case "", TimeTypeDeparture:
		return TimeTypeDeparture, nil
	case TimeTypeArrival:
		return TimeTypeArrival, nil
	default:
		return "", fmt.Errorf("invalid time type %q", raw)
	}
}

// JourneysOptions parametrises a journey search. EarlierThan and LaterThan
// are the opaque paging cursors of a previous response.
type JourneysOptions struct {
	When        *time.Time
	TimeType    TimeType
	Results     int
	Stopovers   bool
	Language    string
	EarlierThan string
	LaterThan   string
}

type RefreshOptions struct {
	Stopovers bool
	Language  string
}
