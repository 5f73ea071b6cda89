package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/golemio"
	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/models"
)

func (api *RestAPI) logger(r *http.Request) *slog.Logger {
	if api.Application != nil && api.Logger != nil {
		return api.Logger
	}
	return logging.FromContext(r.Context())
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.logger(r), "internal server error", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)

	response := models.NewErrorResponse(http.StatusBadRequest, "invalid request parameters", api.Clock)
	response.FieldErrors = fieldErrors

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.logger(r), "failed to encode validation response", err)
	}
}

func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendUnauthorized(w, r)
}

// upstreamErrorResponse reports a failed departure board lookup. Timeouts
// become 504; any other failure of the upstream, including a response that
// cannot be normalized, is a 502.
func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := UpstreamErrorStatus(err)
	kind := departures.ErrorKind(err)

	logging.LogError(api.logger(r), "departure board lookup failed", err,
		slog.Int("status", status),
		slog.String("kind", kind),
		slog.String("request_id", GetRequestID(r.Context())))

	text := "departure board unavailable"
	switch {
	case status == http.StatusGatewayTimeout:
		text = "departure board timed out"
	case kind != "other":
		text = "departure board returned an unusable response"
	}
	api.sendError(w, r, status, text)
}

// UpstreamErrorStatus maps a lookup error to the HTTP status reported to clients.
func UpstreamErrorStatus(err error) int {
	if golemio.IsTimeout(err) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
