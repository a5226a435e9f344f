package restapi

import (
	"net/http"
	"strconv"
	"time"

	"railway.tracker.org/internal/models"
	"railway.tracker.org/internal/utils"
)

const maxSearchResults = 20

func (api *RestAPI) searchJourneysHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	from, fieldErrors := utils.ParsePlaceParams(params, "from", nil)
	to, fieldErrors := utils.ParsePlaceParams(params, "to", fieldErrors)
	when, fieldErrors := utils.ParseTimeParam(params, "when", fieldErrors)
	results, fieldErrors := utils.ParseIntParam(params, "results", 0, fieldErrors)
	if results > maxSearchResults {
		fieldErrors["results"] = append(fieldErrors["results"], "results must not exceed "+strconv.Itoa(maxSearchResults))
	}

	timeType, err := models.ParseTimeType(params.Get("timeType"))
	if err != nil {
		fieldErrors["timeType"] = append(fieldErrors["timeType"], err.Error())
	}

	opts := models.JourneysOptions{
		When:        when,
		TimeType:    timeType,
		Results:     results,
		Stopovers:   true,
		Language:    params.Get("language"),
		EarlierThan: params.Get("earlierThan"),
		LaterThan:   params.Get("laterThan"),
	}
	if opts.EarlierThan != "" && opts.LaterThan != "" {
		fieldErrors["laterThan"] = append(fieldErrors["laterThan"], "earlierThan and laterThan are mutually exclusive")
	}
	if raw := params.Get("stopovers"); raw != "" {
		stopovers, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors["stopovers"] = append(fieldErrors["stopovers"], "Invalid field value for field \"stopovers\".")
		}
		opts.Stopovers = stopovers
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Tracker.Search(r.Context(), from, to, opts)
	if err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}

	now := time.Now()
	view := searchView{
		Journeys:   make([]journeyView, 0, len(result.Journeys)),
		EarlierRef: result.EarlierRef,
		LaterRef:   result.LaterRef,
	}
	for _, j := range result.Journeys {
		view.Journeys = append(view.Journeys, newJourneyView(j, now, api.Tracker.IsBookmarked(j.ID())))
	}
	api.sendOK(w, r, view)
}

// journeyID reads and validates the :id route parameter. It writes the
// validation error itself and reports false in that case.
func (api *RestAPI) journeyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := param(r, "id")
	if err := utils.ValidateJourneyID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return "", false
	}
	return id, true
}

func (api *RestAPI) journeyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.journeyID(w, r)
	if !ok {
		return
	}

	j, err := api.Tracker.Journey(id)
	if err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, newJourneyView(j, time.Now(), api.Tracker.IsBookmarked(id)))
}

func (api *RestAPI) refreshJourneyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.journeyID(w, r)
	if !ok {
		return
	}

	j, err := api.Tracker.Refresh(r.Context(), id)
	if err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, newJourneyView(j, time.Now(), api.Tracker.IsBookmarked(id)))
}
