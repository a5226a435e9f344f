package restapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

func (api *RestAPI) settingsHandler(w http.ResponseWriter, r *http.Request) {
	all, err := api.Settings.All()
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, all)
}

// updateSettingHandler takes the new value from a {"value": ...} body or,
// without a body, from the value query parameter.
func (api *RestAPI) updateSettingHandler(w http.ResponseWriter, r *http.Request) {
	key := param(r, "key")

	var body struct {
		Value *string `json:"value"`
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"invalid JSON body"}})
		return
	}

	value := r.URL.Query().Get("value")
	if body.Value != nil {
		value = *body.Value
	} else if !r.URL.Query().Has("value") {
		api.validationErrorResponse(w, r, map[string][]string{"value": {"value is required"}})
		return
	}

	if err := api.Settings.Set(key, value); err != nil {
		api.operationErrorResponse(w, r, err)
		return
	}

	stored, err := api.Settings.Get(key)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, map[string]string{key: stored})
}
