package restapi

import (
	"net/http"
	"time"

	"railway.tracker.org/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	api.sendOK(w, r, models.NewCurrentTimeData(time.Now()))
}
