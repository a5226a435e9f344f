package journey

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/notify"
)

const (
	startSoonWithin   = time.Hour
	arrivalSoonWithin = 5 * time.Minute
	delayStepMinutes  = 5
)

// NotifyStatus remembers what a watched journey has already notified about.
// Flags and map entries are only ever set, never cleared, so each condition
// fires at most once (delays: once per 5 minutes of additional delay).
type NotifyStatus struct {
	BeginningOfJourney       bool              `json:"beginning_of_journey"`
	InLegSoonTransition      LegSet            `json:"in_leg_soon_transition"`
	Unreachable              bool              `json:"unreachable"`
	Cancelled                bool              `json:"cancelled"`
	DepartureDelays          map[string]int64  `json:"departure_delays"`
	ArrivalDelays            map[string]int64  `json:"arrival_delays"`
	DeparturePlatformChanges map[string]string `json:"departure_platform_changes"`
}

func NewNotifyStatus() *NotifyStatus {
	return &NotifyStatus{
		InLegSoonTransition:      LegSet{},
		DepartureDelays:          map[string]int64{},
		ArrivalDelays:            map[string]int64{},
		DeparturePlatformChanges: map[string]string{},
	}
}

// Clone returns a deep copy.
func (s *NotifyStatus) Clone() *NotifyStatus {
	out := NewNotifyStatus()
	out.BeginningOfJourney = s.BeginningOfJourney
	out.Unreachable = s.Unreachable
	out.Cancelled = s.Cancelled
	for k := range s.InLegSoonTransition {
		out.InLegSoonTransition[k] = struct{}{}
	}
	for k, v := range s.DepartureDelays {
		out.DepartureDelays[k] = v
	}
	for k, v := range s.ArrivalDelays {
		out.ArrivalDelays[k] = v
	}
	for k, v := range s.DeparturePlatformChanges {
		out.DeparturePlatformChanges[k] = v
	}
	return out
}

// Evaluate decides which notifications the event and alerts warrant and
// records them in s. At most one headline (start, transition, unreachable,
// cancelled) fires per call; alert notifications are independent of it.
func (s *NotifyStatus) Evaluate(journeyID string, event Event, alerts []Alert, now time.Time) []notify.Notification {
	s.ensureMaps()

	var out []notify.Notification
	if n, ok := s.headline(journeyID, event, now); ok {
		out = append(out, n)
	}

	for _, alert := range alerts {
		if n, ok := s.alert(alert); ok {
			out = append(out, n)
		}
	}

	for i := range out {
		out[i].SentAt = now
	}
	return out
}

func (s *NotifyStatus) headline(journeyID string, event Event, now time.Time) (notify.Notification, bool) {
	switch event.Kind {
	case BeforeJourney:
		if s.BeginningOfJourney || event.Leg.Departure == nil || event.Leg.Departure.Sub(now) >= startSoonWithin {
			return notify.Notification{}, false
		}
		s.BeginningOfJourney = true
		return notify.Notification{
			ID:    "start-journey-" + journeyID,
			Title: "Your trip starts soon",
			Body:  fmt.Sprintf("Departure from %s at %s", event.Leg.Origin.DisplayName(), clock(event.Leg.Departure)) + platformSuffix(event.Leg.DeparturePlatform),
		}, true

	case InLeg:
		legID := event.Leg.ID()
		if s.InLegSoonTransition.Contains(legID) || event.Leg.Arrival == nil || event.Leg.Arrival.Sub(now) >= arrivalSoonWithin {
			return notify.Notification{}, false
		}
		s.InLegSoonTransition[legID] = struct{}{}
		body := fmt.Sprintf("Arriving at %s at %s", event.Leg.Destination.DisplayName(), clock(event.Leg.Arrival))
		title := "Arriving soon"
		if event.Next != nil {
			title = "Change soon"
			body += fmt.Sprintf(", continue with %s at %s", lineName(*event.Next), clock(event.Next.Departure)) + platformSuffix(event.Next.DeparturePlatform)
		}
		return notify.Notification{ID: "transition-leg-" + legID, Title: title, Body: body}, true

	case Unreachable:
		if s.Unreachable {
			return notify.Notification{}, false
		}
		s.Unreachable = true
		return notify.Notification{
			ID:    "unreachable-journey-" + journeyID,
			Title: "Connection not reachable",
			Body:  "A connection of your trip can no longer be reached",
		}, true

	case Cancelled:
		if s.Cancelled {
			return notify.Notification{}, false
		}
		s.Cancelled = true
		return notify.Notification{
			ID:    "cancelled-journey-" + journeyID,
			Title: "Trip cancelled",
			Body:  "A leg of your trip has been cancelled",
		}, true
	}

	return notify.Notification{}, false
}

func (s *NotifyStatus) alert(alert Alert) (notify.Notification, bool) {
	leg := alert.Leg
	legID := leg.ID()

	switch alert.Kind {
	case DepartureDelayed:
		delay, ok := leg.DepartureDelay()
		if !ok || !crossesDelayStep(delay, s.DepartureDelays[legID]) {
			return notify.Notification{}, false
		}
		minutes := int64(delay / time.Minute)
		s.DepartureDelays[legID] = minutes
		return notify.Notification{
			ID:    "delay-departure-" + legID,
			Title: "Departure delayed",
			Body:  fmt.Sprintf("%s from %s departs %d minutes late", lineName(leg), leg.Origin.DisplayName(), minutes),
		}, true

	case ArrivalDelayed:
		delay, ok := leg.ArrivalDelay()
		if !ok || !crossesDelayStep(delay, s.ArrivalDelays[legID]) {
			return notify.Notification{}, false
		}
		minutes := int64(delay / time.Minute)
		s.ArrivalDelays[legID] = minutes
		return notify.Notification{
			ID:    "delay-arrival-" + legID,
			Title: "Arrival delayed",
			Body:  fmt.Sprintf("%s arrives at %s %d minutes late", lineName(leg), leg.Destination.DisplayName(), minutes),
		}, true

	case DeparturePlatformChange:
		if leg.DeparturePlatform == nil {
			return notify.Notification{}, false
		}
		platform := *leg.DeparturePlatform
		if last, notified := s.DeparturePlatformChanges[legID]; notified && last == platform {
			return notify.Notification{}, false
		}
		s.DeparturePlatformChanges[legID] = platform
		return notify.Notification{
			ID:    "platform-departure-" + legID,
			Title: "Platform changed",
			Body:  fmt.Sprintf("%s from %s now departs from platform %s", lineName(leg), leg.Origin.DisplayName(), platform),
		}, true
	}

	return notify.Notification{}, false
}

func crossesDelayStep(delay time.Duration, notifiedMinutes int64) bool {
	return int64(delay/time.Minute)-notifiedMinutes >= delayStepMinutes
}

func (s *NotifyStatus) ensureMaps() {
	if s.InLegSoonTransition == nil {
		s.InLegSoonTransition = LegSet{}
	}
	if s.DepartureDelays == nil {
		s.DepartureDelays = map[string]int64{}
	}
	if s.ArrivalDelays == nil {
		s.ArrivalDelays = map[string]int64{}
	}
	if s.DeparturePlatformChanges == nil {
		s.DeparturePlatformChanges = map[string]string{}
	}
}

func clock(t *time.Time) string {
	if t == nil {
		return "unknown time"
	}
	return t.Format("15:04")
}

func platformSuffix(platform *string) string {
	if platform == nil || *platform == "" {
		return ""
	}
	return " from platform " + *platform
}

func lineName(leg models.Leg) string {
	if leg.Line != nil && leg.Line.Name != "" {
		return leg.Line.Name
	}
	if leg.Walking {
		return "Walk"
	}
	return "Your connection"
}

// LegSet is a set of leg ids, stored as a sorted JSON array.
type LegSet map[string]struct{}

func (s LegSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s LegSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

func (s *LegSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	set := make(LegSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	*s = set
	return nil
}
