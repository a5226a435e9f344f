package app

import (
	"log/slog"

	"railway.tracker.org/internal/appconf"
	"railway.tracker.org/internal/notify"
	"railway.tracker.org/internal/settings"
	"railway.tracker.org/internal/tracker"
)

// Application holds the dependencies shared by the HTTP handlers, helpers
// and middleware.
type Application struct {
	Config        appconf.Config
	Logger        *slog.Logger
	Tracker       *tracker.Manager
	Settings      *settings.Settings
	Notifications *notify.Recorder
}
