package journey

import "time"

// refreshTiers tighten as the next event approaches. A journey whose next
// event is closer than within is stale once staleAfter has passed since the
// last refresh; staleAfter doubles as the polling interval for that tier.
var refreshTiers = []struct {
	within     time.Duration
	staleAfter time.Duration
}{
	{5 * time.Minute, time.Minute},
	{15 * time.Minute, 5 * time.Minute},
	{time.Hour, 15 * time.Minute},
	{24 * time.Hour, time.Hour},
}

const idleWakeup = 24 * time.Hour

func shouldRefresh(event Event, lastRefreshed, now time.Time) bool {
	if lastRefreshed.IsZero() {
		return true
	}
	next := event.TimeOfNextAction()
	if next == nil {
		return false
	}

	until := next.Sub(now)
	since := now.Sub(lastRefreshed)
	for _, tier := range refreshTiers {
		if until < tier.within && since > tier.staleAfter {
			return true
		}
	}
	return false
}

// nextWakeupIn returns the polling interval of the tier the next event falls
// in, shortened so the task wakes up no later than the moment the event enters
// the next tighter tier.
func nextWakeupIn(event Event, now time.Time) time.Duration {
	next := event.TimeOfNextAction()
	if next == nil {
		return 0
	}

	until := next.Sub(now)
	wakeup, lower := idleWakeup, refreshTiers[len(refreshTiers)-1].within
	for i, tier := range refreshTiers {
		if until < tier.within {
			wakeup, lower = tier.staleAfter, 0
			if i > 0 {
				lower = refreshTiers[i-1].within
			}
			break
		}
	}

	if lower > 0 {
		wakeup = min(wakeup, max(until-lower, refreshTiers[0].staleAfter))
	}
	return wakeup
}
