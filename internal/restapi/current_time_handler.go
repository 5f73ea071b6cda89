package restapi

import (
	"net/http"

	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/models"
)

// currentTimeHandler writes the current time in the transit zone together
// with the default board start time.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	loc := api.Zone()
	timeData := models.NewCurrentTimeData(api.Clock.Now(), clock.DefaultDeparture(api.Clock, loc), loc)
	api.sendResponse(w, r, models.NewOKResponse(timeData, api.Clock))
}
