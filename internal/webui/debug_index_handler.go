package webui

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"railway.tracker.org/internal/app"
	"railway.tracker.org/internal/journey"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

type debugData struct {
	Title     string
	Key       string
	DataTypes []string
	Pre       string
}

var dataTypes = []string{"bookmarks", "watched", "states", "notifications", "settings"}

// journeyDebug is what the page shows per journey: server data plus the
// derived state and scheduling.
type journeyDebug struct {
	ID            string
	LastRefreshed time.Time
	Scheduled     bool
	NextWakeupIn  time.Duration
	State         journey.State
	NotifyStatus  *journey.NotifyStatus
}

func writeDebugData(w http.ResponseWriter, r *http.Request, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title:     title,
		Key:       app.APIKey(r),
		DataTypes: dataTypes,
		Pre:       dumper.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.RequestHasInvalidAPIKey(r) {
		http.Error(w, "permission denied", http.StatusUnauthorized)
		return
	}

	var data interface{}
	var title string

	switch r.URL.Query().Get("dataType") {
	case "bookmarks":
		var out []interface{}
		for _, j := range webUI.Tracker.Bookmarks() {
			out = append(out, j.Data())
		}
		data = out
		title = "Bookmarked journeys"
	case "watched":
		var out []interface{}
		for _, j := range webUI.Tracker.Watched() {
			out = append(out, j.Data())
		}
		data = out
		title = "Watched journeys"
	case "states":
		now := time.Now()
		var out []journeyDebug
		for _, j := range webUI.Tracker.Bookmarks() {
			out = append(out, journeyDebug{
				ID:            j.ID(),
				LastRefreshed: j.LastRefreshed(),
				Scheduled:     webUI.Tracker.Scheduled(j.ID()),
				NextWakeupIn:  j.NextWakeupIn(now),
				State:         j.State(now),
				NotifyStatus:  j.NotifyStatus(),
			})
		}
		data = out
		title = "Journey states"
	case "notifications":
		if webUI.Notifications != nil {
			data = webUI.Notifications.Recent()
		}
		title = "Recent notifications"
	case "settings":
		all, err := webUI.Settings.All()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data = all
		title = "Settings"
	default:
		data = map[string]string{
			"error": "Please use one of the following: bookmarks, watched, states, notifications, settings.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, r, title, data)
}
