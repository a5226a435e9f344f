package tracker

import "time"

type Config struct {
	// PinnedJourneys is how many recently viewed journeys are kept alive
	// after no request references them anymore.
	PinnedJourneys int
	// PruneSchedule is the cron expression of the old bookmark cleanup.
	PruneSchedule string
	// Minutely is the fixed tick of journeys with an imminent event.
	Minutely time.Duration
}

func (c Config) withDefaults() Config {
	if c.PinnedJourneys <= 0 {
		c.PinnedJourneys = 64
	}
	if c.PruneSchedule == "" {
		c.PruneSchedule = "@every 1h"
	}
	if c.Minutely <= 0 {
		c.Minutely = time.Minute
	}
	return c
}
