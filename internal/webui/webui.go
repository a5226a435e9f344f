// Package webui serves a debug page that dumps the tracker state.
package webui

import "railway.tracker.org/internal/app"

type WebUI struct {
	*app.Application
}

func New(app *app.Application) *WebUI {
	return &WebUI{Application: app}
}
