package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func validateAPIKey(api *RestAPI, finalHandler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

func (api *RestAPI) Routes() *httprouter.Router {
	router := httprouter.New()

	router.Handler(http.MethodGet, "/api/current-time", validateAPIKey(api, api.currentTimeHandler))
	router.Handler(http.MethodGet, "/api/locations", validateAPIKey(api, api.locationsHandler))

	router.Handler(http.MethodGet, "/api/journeys", validateAPIKey(api, api.searchJourneysHandler))
	router.Handler(http.MethodGet, "/api/journeys/:id", validateAPIKey(api, api.journeyHandler))
	router.Handler(http.MethodPost, "/api/journeys/:id/refresh", validateAPIKey(api, api.refreshJourneyHandler))

	router.Handler(http.MethodGet, "/api/bookmarks", validateAPIKey(api, api.bookmarksHandler))
	router.Handler(http.MethodPut, "/api/bookmarks/:id", validateAPIKey(api, api.addBookmarkHandler))
	router.Handler(http.MethodDelete, "/api/bookmarks/:id", validateAPIKey(api, api.removeBookmarkHandler))

	router.Handler(http.MethodGet, "/api/watched", validateAPIKey(api, api.watchedHandler))
	router.Handler(http.MethodPut, "/api/watched/:id", validateAPIKey(api, api.watchHandler))
	router.Handler(http.MethodDelete, "/api/watched/:id", validateAPIKey(api, api.unwatchHandler))

	router.Handler(http.MethodGet, "/api/notifications", validateAPIKey(api, api.notificationsHandler))

	router.Handler(http.MethodGet, "/api/settings", validateAPIKey(api, api.settingsHandler))
	router.Handler(http.MethodPut, "/api/settings/:key", validateAPIKey(api, api.updateSettingHandler))

	router.NotFound = http.HandlerFunc(api.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowedResponse)
	router.HandleOPTIONS = false

	return router
}

func param(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}
