package journey

import (
	"fmt"
	"time"

	"railway.tracker.org/internal/models"
)

type EventKind int

const (
	BeforeJourney EventKind = iota
	InLeg
	TransitionTo
	AfterJourney
	Unreachable
	Cancelled
)

var eventKindNames = map[EventKind]string{
	BeforeJourney: "before_journey",
	InLeg:         "in_leg",
	TransitionTo:  "transition_to",
	AfterJourney:  "after_journey",
	Unreachable:   "unreachable",
	Cancelled:     "cancelled",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event_kind(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is the lifecycle phase of a journey at one instant.
//
//	BeforeJourney, TransitionTo: Leg is the leg departing next.
//	InLeg: Leg is the leg being ridden, Next the following non-walking leg (may be nil).
type Event struct {
	Kind EventKind
	Leg  *models.Leg
	Next *models.Leg
}

// EventAt derives the event from leg data and the wall clock alone.
func EventAt(legs []models.Leg, now time.Time) Event {
	for _, leg := range legs {
		if !leg.Reachable {
			return Event{Kind: Unreachable}
		}
	}
	for _, leg := range legs {
		if leg.Cancelled {
			return Event{Kind: Cancelled}
		}
	}

	for i := range legs {
		leg := &legs[i]
		if leg.Departure != nil && now.Before(*leg.Departure) {
			if i == 0 {
				return Event{Kind: BeforeJourney, Leg: leg}
			}
			return Event{Kind: TransitionTo, Leg: leg}
		}
		if leg.Arrival != nil && now.Before(*leg.Arrival) && !leg.Walking {
			return Event{Kind: InLeg, Leg: leg, Next: nextNonWalkingLeg(legs, i)}
		}
	}

	return Event{Kind: AfterJourney}
}

func nextNonWalkingLeg(legs []models.Leg, after int) *models.Leg {
	for i := after + 1; i < len(legs); i++ {
		if !legs[i].Walking {
			return &legs[i]
		}
	}
	return nil
}

// CurrentLeg is the leg being ridden, if any.
func (e Event) CurrentLeg() *models.Leg {
	if e.Kind == InLeg {
		return e.Leg
	}
	return nil
}

// NextLeg is the leg the traveller boards next, if any.
func (e Event) NextLeg() *models.Leg {
	switch e.Kind {
	case BeforeJourney, TransitionTo:
		return e.Leg
	case InLeg:
		return e.Next
	default:
		return nil
	}
}

// TimeOfNextAction is when the traveller next has to do something. Terminal
// events have none.
func (e Event) TimeOfNextAction() *time.Time {
	switch e.Kind {
	case BeforeJourney, TransitionTo:
		return e.Leg.Departure
	case InLeg:
		return e.Leg.Arrival
	default:
		return nil
	}
}

// Terminal reports whether no further action is expected.
func (e Event) Terminal() bool {
	return e.Kind == AfterJourney || e.Kind == Unreachable || e.Kind == Cancelled
}
