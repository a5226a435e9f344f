package main

import (
	"net/http"

	"railway.tracker.org/internal/app"
	"railway.tracker.org/internal/appconf"
	"railway.tracker.org/internal/restapi"
	"railway.tracker.org/internal/webui"
)

// routes mounts the JSON API and, outside production, the debug pages.
func routes(application *app.Application, api *restapi.RestAPI) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", api.Handler())
	if application.Config.Env != appconf.Production {
		webui.New(application).SetWebUIRoutes(mux)
	}
	return mux
}
