package journey

import (
	"fmt"
	"time"

	"railway.tracker.org/internal/models"
)

type AlertKind int

const (
	DepartureDelayed AlertKind = iota
	ArrivalDelayed
	DeparturePlatformChange
)

var alertKindNames = map[AlertKind]string{
	DepartureDelayed:        "departure_delayed",
	ArrivalDelayed:          "arrival_delayed",
	DeparturePlatformChange: "departure_platform_change",
}

func (k AlertKind) String() string {
	if name, ok := alertKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("alert_kind(%d)", int(k))
}

func (k AlertKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Alert is a real-time deviation on one leg.
type Alert struct {
	Kind AlertKind
	Leg  models.Leg
}

// Key identifies an alert by kind and leg; the list returned by AlertsAt may
// contain the same key twice.
func (a Alert) Key() string {
	return a.Kind.String() + "/" + a.Leg.ID()
}

// AlertsAt lists the deviations still relevant at now. Legs departing in the
// future are checked for departure delay, platform change and arrival delay;
// legs arriving in the future are checked for arrival delay again, so a leg
// can yield ArrivalDelayed twice.
func AlertsAt(legs []models.Leg, now time.Time) []Alert {
	var alerts []Alert

	for _, leg := range legs {
		if leg.Departure != nil && now.Before(*leg.Departure) {
			if timesDiffer(leg.Departure, leg.PlannedDeparture) {
				alerts = append(alerts, Alert{Kind: DepartureDelayed, Leg: leg})
			}
			if platformsDiffer(leg.DeparturePlatform, leg.PlannedDeparturePlatform) {
				alerts = append(alerts, Alert{Kind: DeparturePlatformChange, Leg: leg})
			}
			if timesDiffer(leg.Arrival, leg.PlannedArrival) {
				alerts = append(alerts, Alert{Kind: ArrivalDelayed, Leg: leg})
			}
		}
	}

	for _, leg := range legs {
		if leg.Arrival != nil && now.Before(*leg.Arrival) && timesDiffer(leg.Arrival, leg.PlannedArrival) {
			alerts = append(alerts, Alert{Kind: ArrivalDelayed, Leg: leg})
		}
	}

	return alerts
}

func timesDiffer(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != b
	}
	return !a.Equal(*b)
}

func platformsDiffer(a, b *string) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}
