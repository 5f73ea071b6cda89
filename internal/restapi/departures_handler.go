package restapi

import (
	"log/slog"
	"net/http"

	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/models"
)

// departuresHandler answers GET /api/departures.json with the normalized
// board for the requested stops and start time. Either every departure is
// returned, in upstream order, or the request fails as a whole.
func (api *RestAPI) departuresHandler(w http.ResponseWriter, r *http.Request) {
	q, fieldErrors := api.QueryFromRequest(r)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if api.Departures == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "departure board client not configured")
		return
	}

	records, err := api.Departures.Lookup(r.Context(), q)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "departures_served",
		slog.Int("stops", len(q.StopNames)),
		slog.Int("departures", len(records)))

	board := models.NewDepartureBoard(q, records, api.Zone())
	api.sendResponse(w, r, models.NewOKResponse(board, api.Clock))
}
