package restapi

import (
	"net/http"

	"railway.tracker.org/internal/notify"
)

func (api *RestAPI) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	notifications := []notify.Notification{}
	if api.Notifications != nil {
		notifications = api.Notifications.Recent()
	}
	api.sendOK(w, r, notifications)
}
