package restapi

import (
	"net/http"
	"time"

	"railway.tracker.org/internal/journey"
)

func journeyViews(journeys []*journey.Journey, now time.Time) []journeyView {
	views := make([]journeyView, 0, len(journeys))
	for _, j := range journeys {
		views = append(views, newJourneyView(j, now, true))
	}
	return views
}

func (api *RestAPI) bookmarksHandler(w http.ResponseWriter, r *http.Request) {
	api.sendOK(w, r, journeyViews(api.Tracker.Bookmarks(), time.Now()))
}

func (api *RestAPI) addBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.journeyID(w, r)
	if !ok {
		return
	}

	j, err := api.Tracker.Bookmark(id)
	if err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, newJourneyView(j, time.Now(), true))
}

func (api *RestAPI) removeBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.journeyID(w, r)
	if !ok {
		return
	}

	if err := api.Tracker.Unbookmark(id); err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, nil)
}
