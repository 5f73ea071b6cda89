package restapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"jizdninerad.cz/internal/app"
	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/golemio"
	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/metrics"
	"jizdninerad.cz/internal/models"
)

const upstreamBoard = `{
  "stops": [
    {"stop_id": "U1", "stop_name": "Divadlo%20Gong"},
    {"stop_id": "U2", "stop_name": "Ocel%C3%A1%C5%99sk%C3%A1"}
  ],
  "departures": [
    {
      "departure_timestamp": {"predicted": "2024-01-15T14:41:30+01:00", "scheduled": "2024-01-15T14:40:00+01:00"},
      "stop": {"id": "U2", "platform_code": "B"},
      "route": {"short_name": "136"},
      "trip": {"headsign": "Ji%C5%BEn%C3%AD%20M%C4%9Bsto"},
      "last_stop": {"name": "Poliklinika%20Vyso%C4%8Dany"}
    },
    {
      "departure_timestamp": {"predicted": "2024-01-15T14:38:00+01:00", "scheduled": "2024-01-15T14:38:00+01:00"},
      "stop": {"id": "U1", "platform_code": null},
      "route": {"short_name": "8"},
      "trip": {"headsign": "Star%C3%BD%20Hloub%C4%9Bt%C3%ADn"},
      "last_stop": {"name": "Divadlo Gong"}
    }
  ]
}`

// testNow is 14:37:42 in Prague; the default start time is 14:35.
var testNow = time.Date(2024, 1, 15, 13, 37, 42, 0, time.UTC)

func staticUpstream(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

// createTestApi builds an API whose departure board client talks to upstream.
// Requests must carry key=TEST.
func createTestApi(t *testing.T, upstream http.Handler) *RestAPI {
	t.Helper()

	if upstream == nil {
		upstream = staticUpstream(upstreamBoard)
	}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.ApiKeys = []string{"TEST"}
	cfg.RateLimit = 100
	cfg.Golemio.BaseURL = server.URL
	cfg.Golemio.AccessToken = "token"

	logger := logging.NewLogger(logging.Options{Output: io.Discard})
	m := metrics.New()

	client, err := golemio.NewClient(golemio.Config{
		BaseURL:     cfg.Golemio.BaseURL,
		AccessToken: cfg.Golemio.AccessToken,
		Timeout:     2 * time.Second,
	}, logger, m)
	require.NoError(t, err)

	api := NewRestAPI(&app.Application{
		Config:     cfg,
		Logger:     logger,
		Clock:      clock.NewMockClock(testNow),
		Metrics:    m,
		Location:   prague,
		Departures: departures.NewService(client, logger, m),
	})
	t.Cleanup(api.Shutdown)
	return api
}

func serveApi(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(api.Handler(mux))
	t.Cleanup(server.Close)
	return server
}

// serveAndRetrieveEndpoint performs a GET against api and decodes the envelope.
func serveAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := serveApi(t, api)

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var model models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
	return resp, model
}
