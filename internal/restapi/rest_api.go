package restapi

import (
	"net/http"
	"sync"
	"time"

	"railway.tracker.org/internal/app"
	"railway.tracker.org/internal/limiter"
)

// DefaultLocationDebounce is the window in which location lookups of one
// input field are conflated into a single backend call.
const DefaultLocationDebounce = 300 * time.Millisecond

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware

	locationDebounce time.Duration
	limitersMu       sync.Mutex
	locationLimiters map[string]*limiter.RequestLimiter[string]
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application:      app,
		rateLimiter:      NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
		locationDebounce: DefaultLocationDebounce,
		locationLimiters: map[string]*limiter.RequestLimiter[string]{},
	}
}

// Handler returns the API router wrapped in the middleware chain.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.Routes()
	handler = api.rateLimiter.Handler(handler)
	handler = securityHeaders(handler)
	handler = CompressionMiddleware(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}

// Close stops background work owned by the API.
func (api *RestAPI) Close() {
	api.rateLimiter.Stop()
}

// locationLimiter returns the limiter of one input field of one client.
func (api *RestAPI) locationLimiter(apiKey, field string) *limiter.RequestLimiter[string] {
	key := apiKey + "\x00" + field

	api.limitersMu.Lock()
	defer api.limitersMu.Unlock()

	l, ok := api.locationLimiters[key]
	if !ok {
		l = limiter.New[string](api.locationDebounce)
		api.locationLimiters[key] = l
	}
	return l
}
