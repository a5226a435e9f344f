// Package backend talks to the journey planner service.
package backend

import (
	"context"
	"time"

	"railway.tracker.org/internal/models"
)

// Client is the journey planner. Every call may block on the network.
type Client interface {
	Locations(ctx context.Context, query string) ([]models.Place, error)
	Journeys(ctx context.Context, from, to models.Place, opts models.JourneysOptions) (models.JourneysResponse, error)
	RefreshJourney(ctx context.Context, token string, opts models.RefreshOptions) (models.Journey, error)
}

const (
	DefaultBaseURL     = "https://v6.db.transport.rest"
	DefaultTimeout     = 30 * time.Second
	DefaultWorkers     = 4
	DefaultRatePerSec  = 5
	DefaultLocationTTL = 10 * time.Minute
)

type Config struct {
	BaseURL string
	// Timeout bounds every call made through WithTimeout.
	Timeout time.Duration
	// Workers is the number of calls allowed in flight at once.
	Workers int
	// RatePerSecond paces outbound requests; zero disables pacing.
	RatePerSecond int
	// LocationCacheSize and LocationTTL configure the location lookup cache.
	LocationCacheSize int
	LocationTTL       time.Duration
	UserAgent         string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.LocationCacheSize <= 0 {
		c.LocationCacheSize = 256
	}
	if c.LocationTTL <= 0 {
		c.LocationTTL = DefaultLocationTTL
	}
	if c.UserAgent == "" {
		c.UserAgent = "railway-tracker"
	}
	return c
}
