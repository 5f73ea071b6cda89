package restapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jizdninerad.cz/internal/golemio"
	"jizdninerad.cz/internal/models"
)

type departuresEnvelope struct {
	Code        int                   `json:"code"`
	Text        string                `json:"text"`
	Data        models.DepartureBoard `json:"data"`
	FieldErrors map[string][]string   `json:"fieldErrors"`
}

func getDepartures(t *testing.T, api *RestAPI, rawQuery string) (*http.Response, departuresEnvelope) {
	t.Helper()
	server := serveApi(t, api)

	resp, err := http.Get(server.URL + "/api/departures.json?" + rawQuery)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var envelope departuresEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestDeparturesHandlerRequiresValidApiKey(t *testing.T) {
	api := createTestApi(t, nil)
	resp, model := serveAndRetrieveEndpoint(t, api, "/api/departures.json?key=invalid")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, model.Code)
	assert.Equal(t, "permission denied", model.Text)
}

func TestDeparturesHandlerReturnsNormalizedBoard(t *testing.T) {
	var (
		mu    sync.Mutex
		query url.Values
		token string
	)
	api := createTestApi(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		query = r.URL.Query()
		token = r.Header.Get(golemio.AccessTokenHeader)
		mu.Unlock()
		staticUpstream(upstreamBoard)(w, r)
	}))

	resp, envelope := getDepartures(t, api, "key=TEST&names=Divadlo+Gong&names=Ocel%C3%A1%C5%99sk%C3%A1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	mu.Lock()
	assert.Equal(t, []string{"Divadlo Gong", "Ocelářská"}, query["names"])
	assert.Equal(t, "2024-01-15T14:35:00+01:00", query.Get("timeFrom"))
	assert.Equal(t, "30", query.Get("minutesAfter"))
	assert.Equal(t, "1000", query.Get("limit"))
	assert.Equal(t, "token", token)
	mu.Unlock()

	board := envelope.Data
	assert.Equal(t, "2024-01-15T14:35:00+01:00", board.TimeFrom)
	require.Len(t, board.Departures, 2)

	first := board.Departures[0]
	assert.Equal(t, "Ocelářská", first.StopName)
	assert.Equal(t, "136", first.Route)
	assert.Equal(t, "Jižní Město", first.Headsign)
	assert.Equal(t, "B", first.Platform)
	assert.Equal(t, "Poliklinika%20Vyso%C4%8Dany", first.LastStopName, "last stop name is passed through undecoded")
	assert.Equal(t, float64(390), first.TimeUntilDepartureSeconds)
	assert.Equal(t, float64(90), first.DelaySeconds)

	second := board.Departures[1]
	assert.Equal(t, "Divadlo Gong", second.StopName)
	assert.Equal(t, "", second.Platform)
	assert.Equal(t, "2024-01-15T14:38:00+01:00", second.PredictedDeparture)
}

func TestDeparturesHandlerUsesConfiguredDefaults(t *testing.T) {
	var (
		mu    sync.Mutex
		names []string
	)
	api := createTestApi(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		names = r.URL.Query()["names"]
		mu.Unlock()
		staticUpstream(upstreamBoard)(w, r)
	}))

	resp, envelope := getDepartures(t, api, "key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Divadlo Gong", "Ocelářská"}, names)
	assert.Equal(t, names, envelope.Data.StopNames)
}

func TestDeparturesHandlerValidationErrors(t *testing.T) {
	api := createTestApi(t, nil)

	resp, envelope := getDepartures(t, api, "key=TEST&timeFrom=2024-01-15T14:35:00")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, http.StatusBadRequest, envelope.Code)
	assert.Contains(t, envelope.FieldErrors, "timeFrom")
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
}

func TestDeparturesHandlerUpstreamFailures(t *testing.T) {
	tests := []struct {
		name     string
		upstream http.HandlerFunc
		status   int
		kind     string
	}{
		{
			name:     "unresolved stop",
			upstream: staticUpstream(`{"stops":[],"departures":[{"departure_timestamp":{"predicted":"2024-01-15T14:41:30+01:00","scheduled":"2024-01-15T14:40:00+01:00"},"stop":{"id":"X"},"route":{"short_name":"1"},"trip":{"headsign":"A"},"last_stop":{"name":"B"}}]}`),
			status:   http.StatusBadGateway,
			kind:     "unresolved_stop",
		},
		{
			name:     "malformed timestamp",
			upstream: staticUpstream(`{"stops":[{"stop_id":"U1","stop_name":"A"}],"departures":[{"departure_timestamp":{"predicted":"soon","scheduled":"2024-01-15T14:40:00+01:00"},"stop":{"id":"U1"},"route":{"short_name":"1"},"trip":{"headsign":"A"},"last_stop":{"name":"B"}}]}`),
			status:   http.StatusBadGateway,
			kind:     "malformed_timestamp",
		},
		{
			name:     "malformed response",
			upstream: staticUpstream(`{"departures":[]}`),
			status:   http.StatusBadGateway,
			kind:     "malformed_response",
		},
		{
			name: "upstream rejects token",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			},
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := createTestApi(t, tt.upstream)

			resp, envelope := getDepartures(t, api, "key=TEST&names=A")

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.status, envelope.Code)
			assert.Empty(t, envelope.Data.Departures, "no partial board is returned")
			if tt.kind != "" {
				assert.Equal(t, float64(1), testutil.ToFloat64(api.Metrics.NormalizationErrorsTotal.WithLabelValues(tt.kind)))
			}
		})
	}
}

func TestDeparturesHandlerUpstreamTimeout(t *testing.T) {
	release := make(chan struct{})
	api := createTestApi(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}))
	defer close(release)

	resp, envelope := getDepartures(t, api, "key=TEST&names=A")

	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "departure board timed out", envelope.Text)
}

func TestDeparturesHandlerWithoutService(t *testing.T) {
	api := createTestApi(t, nil)
	api.Departures = nil

	resp, envelope := getDepartures(t, api, "key=TEST&names=A")

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, envelope.Code)
}
