package restapi

import (
	"net/http"
	"strings"

	"railway.tracker.org/internal/app"
	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/utils"
)

const defaultLocationField = "default"

type locationsView struct {
	Query  string         `json:"query"`
	Places []models.Place `json:"places"`
}

// locationsHandler answers autocompletion lookups. Lookups of one input
// field are conflated: a request overtaken by a newer one of the same field
// gets 204 No Content and no backend call is made for it.
func (api *RestAPI) locationsHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query, err := utils.ValidateAndSanitizeQuery(params.Get("query"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"query": {err.Error()}})
		return
	}
	if query == "" {
		api.validationErrorResponse(w, r, map[string][]string{"query": {"query is required"}})
		return
	}

	field := strings.TrimSpace(params.Get("field"))
	if field == "" {
		field = defaultLocationField
	}
	if len(field) > 64 {
		api.validationErrorResponse(w, r, map[string][]string{"field": {"field too long (max 64 characters)"}})
		return
	}

	query, ok := api.locationLimiter(app.APIKey(r), field).Request(r.Context(), query)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	places, err := api.Tracker.Locations(r.Context(), query)
	if err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	if places == nil {
		places = []models.Place{}
	}

	api.sendOK(w, r, locationsView{Query: query, Places: places})
}
