package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
	"railway.tracker.org/internal/logging"
	"railway.tracker.org/internal/models"
)

// HTTPClient queries an FPTF REST endpoint (db-rest and compatible servers).
type HTTPClient struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	locations *expirable.LRU[string, []models.Place]
	userAgent string
	logger    *slog.Logger
}

func NewHTTPClient(config Config, httpClient *http.Client, logger *slog.Logger) (*HTTPClient, error) {
	config = config.withDefaults()

	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", config.BaseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	burst := 1
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
		burst = config.RatePerSecond
	}

	return &HTTPClient{
		baseURL:   base,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, burst),
		locations: expirable.NewLRU[string, []models.Place](config.LocationCacheSize, nil, config.LocationTTL),
		userAgent: config.UserAgent,
		logger:    logging.Component(logger, "backend"),
	}, nil
}

func (c *HTTPClient) Locations(ctx context.Context, query string) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Place{}, nil
	}

	key := strings.ToLower(query)
	if places, ok := c.locations.Get(key); ok {
		return places, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("results", "10")

	var places []models.Place
	if err := c.get(ctx, "locations", "/locations", params, &places); err != nil {
		return nil, err
	}
	if places == nil {
		places = []models.Place{}
	}

	c.locations.Add(key, places)
	return places, nil
}

func (c *HTTPClient) Journeys(ctx context.Context, from, to models.Place, opts models.JourneysOptions) (models.JourneysResponse, error) {
	params := url.Values{}
	if err := placeParams(params, "from", from); err != nil {
		return models.JourneysResponse{}, wrap("journeys", err)
	}
	if err := placeParams(params, "to", to); err != nil {
		return models.JourneysResponse{}, wrap("journeys", err)
	}

	switch {
	case opts.EarlierThan != "":
		params.Set("earlierThan", opts.EarlierThan)
	case opts.LaterThan != "":
		params.Set("laterThan", opts.LaterThan)
	case opts.When != nil:
		key := "departure"
		if opts.TimeType == models.TimeTypeArrival {
			key = "arrival"
		}
		params.Set(key, opts.When.Format(time.RFC3339))
	}
	if opts.Results > 0 {
		params.Set("results", strconv.Itoa(opts.Results))
	}
	params.Set("stopovers", strconv.FormatBool(opts.Stopovers))
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}

	var resp models.JourneysResponse
	if err := c.get(ctx, "journeys", "/journeys", params, &resp); err != nil {
		return models.JourneysResponse{}, err
	}
	return resp, nil
}

func (c *HTTPClient) RefreshJourney(ctx context.Context, token string, opts models.RefreshOptions) (models.Journey, error) {
	params := url.Values{}
	params.Set("stopovers", strconv.FormatBool(opts.Stopovers))
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}

	var resp struct {
		Journey models.Journey `json:"journey"`
	}
	if err := c.get(ctx, "refresh_journey", "/journeys/"+url.PathEscape(token), params, &resp); err != nil {
		return models.Journey{}, err
	}
	return resp.Journey, nil
}

// get fetches path, which must already be escaped, and decodes the JSON body
// into out.
func (c *HTTPClient) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return wrap(op, err)
	}

	u, err := url.Parse(c.baseURL.String() + path)
	if err != nil {
		return wrap(op, err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return wrap(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return wrap(op, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	logging.LogOperation(c.logger, "backend_request",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Kind: KindBackend, Op: op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(errorMessage(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrap(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// errorMessage extracts the "msg" field hafas-rest-api style servers send,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Msg != "" {
			return payload.Msg
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if len(body) == 0 {
		return "empty response"
	}
	return string(body)
}

// placeParams encodes a place the way FPTF servers expect: stops and
// stations by id, everything else by coordinates.
func placeParams(params url.Values, prefix string, place models.Place) error {
	if (place.Type == models.PlaceTypeStop || place.Type == models.PlaceTypeStation) && place.ID != "" {
		params.Set(prefix, place.ID)
		return nil
	}
	if !place.HasLocation() {
		return fmt.Errorf("%s place has neither a stop id nor coordinates", prefix)
	}

	params.Set(prefix+".latitude", strconv.FormatFloat(*place.Latitude, 'f', -1, 64))
	params.Set(prefix+".longitude", strconv.FormatFloat(*place.Longitude, 'f', -1, 64))
	if place.ID != "" {
		params.Set(prefix+".id", place.ID)
		params.Set(prefix+".name", place.DisplayName())
	} else {
		params.Set(prefix+".address", place.DisplayName())
	}
	return nil
}
