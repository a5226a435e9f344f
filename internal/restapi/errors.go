package restapi

import (
	"errors"
	"log/slog"
	"net/http"

	"railway.tracker.org/internal/backend"
	"railway.tracker.org/internal/journey"
	"railway.tracker.org/internal/logging"
	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/settings"
	"railway.tracker.org/internal/store"
	"railway.tracker.org/internal/tracker"
)

// errorResponse sends the standard envelope with no data.
func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, text string) {
	api.sendResponse(w, r, models.NewResponse(status, nil, text))
}

// invalidAPIKeyResponse sends a 401 Unauthorized response
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err,
		slog.String("path", r.URL.Path))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendResponse(w, r, models.NewResponse(http.StatusBadRequest, struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{FieldErrors: fieldErrors}, "validation failed"))
}

// operationErrorResponse maps errors of tracker operations to status codes:
// unknown journeys 404, backend timeouts 504, other backend failures 502.
func (api *RestAPI) operationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var be *backend.Error
	switch {
	case errors.Is(err, tracker.ErrUnknownJourney), errors.Is(err, store.ErrNotBookmarked):
		api.errorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, journey.ErrRefreshInProgress):
		api.errorResponse(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, journey.ErrNoRefreshToken):
		api.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, settings.ErrUnknownKey):
		api.errorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, settings.ErrInvalidValue):
		api.validationErrorResponse(w, r, map[string][]string{"value": {err.Error()}})
	case backend.IsTimeout(err):
		logging.LogError(logging.FromContext(r.Context()), "backend timed out", err)
		api.errorResponse(w, r, http.StatusGatewayTimeout, "journey planner timed out")
	case errors.As(err, &be):
		logging.LogError(logging.FromContext(r.Context()), "backend failed", err)
		api.errorResponse(w, r, http.StatusBadGateway, "journey planner error: "+be.Err.Error())
	default:
		api.serverErrorResponse(w, r, err)
	}
}
