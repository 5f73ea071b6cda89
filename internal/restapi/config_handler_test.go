package restapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jizdninerad.cz/internal/buildinfo"
)

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestConfigHandlerRequiresValidApiKey(t *testing.T) {
	api := createTestApi(t, nil)
	resp, model := serveAndRetrieveEndpoint(t, api, "/api/config.json?key=invalid")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "permission denied", model.Text)
}

func TestConfigHandler(t *testing.T) {
	originalVersion := buildinfo.Version
	originalHash := buildinfo.CommitHash
	t.Cleanup(func() {
		buildinfo.Version = originalVersion
		buildinfo.CommitHash = originalHash
	})
	buildinfo.Version = "v1.4.0"
	buildinfo.CommitHash = "0123456789abcdef"

	api := createTestApi(t, nil)
	resp, model := serveAndRetrieveEndpoint(t, api, "/api/config.json?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "Jízdní neřád", data["name"])
	assert.Equal(t, "Europe/Prague", data["timezone"])
	assert.Equal(t, []interface{}{"Divadlo Gong", "Ocelářská"}, data["defaultStops"])
	assert.Equal(t, float64(30), data["minutesAfter"])
	assert.Equal(t, float64(1000), data["limit"])

	props, ok := data["buildProperties"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "v1.4.0", props["build.version"])
	assert.Equal(t, "0123456", props["git.commit.id.abbrev"])
}

func TestCurrentTimeHandler(t *testing.T) {
	api := createTestApi(t, nil)
	resp, model := serveAndRetrieveEndpoint(t, api, "/api/current-time.json?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, testNow.UnixMilli(), model.CurrentTime)

	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(testNow.UnixMilli()), data["time"])
	assert.Equal(t, "2024-01-15T14:37:42+01:00", data["readableTime"])
	assert.Equal(t, "2024-01-15T14:35:00+01:00", data["defaultDeparture"])
}

func TestResponsesAreCompressed(t *testing.T) {
	deps := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		deps = append(deps, fmt.Sprintf(`{"departure_timestamp":{"predicted":"2024-01-15T14:%02d:00+01:00","scheduled":"2024-01-15T14:%02d:00+01:00"},"stop":{"id":"U1","platform_code":"A"},"route":{"short_name":"%d"},"trip":{"headsign":"Sídliště%%20Ďáblice"},"last_stop":{"name":"Kobylisy"}}`, 35+i%20, 35+i%20, i))
	}
	board := `{"stops":[{"stop_id":"U1","stop_name":"Divadlo%20Gong"}],"departures":[` + strings.Join(deps, ",") + `]}`

	api := createTestApi(t, staticUpstream(board))
	server := serveApi(t, api)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/departures.json?key=TEST&names=A", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	// Setting Accept-Encoding by hand disables transparent decompression.
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}
