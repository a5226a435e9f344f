package restapi

import (
	"net/http"
	"time"
)

func (api *RestAPI) watchedHandler(w http.ResponseWriter, r *http.Request) {
	api.sendOK(w, r, journeyViews(api.Tracker.Watched(), time.Now()))
}

// watchHandler turns notifications on, bookmarking the journey if needed.
func (api *RestAPI) watchHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.journeyID(w, r)
	if !ok {
		return
	}

	j, err := api.Tracker.Watch(id)
	if err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, newJourneyView(j, time.Now(), true))
}

func (api *RestAPI) unwatchHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.journeyID(w, r)
	if !ok {
		return
	}

	if err := api.Tracker.Unwatch(id); err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, nil)
}
