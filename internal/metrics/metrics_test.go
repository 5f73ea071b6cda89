package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.NotNil(t, m.Registry)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.RateLimitedTotal)
	assert.NotNil(t, m.UpstreamRequestsTotal)
	assert.NotNil(t, m.UpstreamRequestDuration)
	assert.NotNil(t, m.UpstreamResponseBytes)
	assert.NotNil(t, m.DeparturesReturned)
	assert.NotNil(t, m.NormalizationErrorsTotal)
}

func TestNewWithLogger(t *testing.T) {
	m := NewWithLogger(nil)
	assert.NotNil(t, m)
	assert.Nil(t, m.logger)
}

func TestInstancesUseSeparateRegistries(t *testing.T) {
	a := New()
	b := New()

	a.UpstreamRequestsTotal.WithLabelValues("200").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.UpstreamRequestsTotal.WithLabelValues("200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.UpstreamRequestsTotal.WithLabelValues("200")))
}

func TestNormalizationErrorsExposition(t *testing.T) {
	m := New()
	m.NormalizationErrorsTotal.WithLabelValues("unresolved_stop").Inc()
	m.NormalizationErrorsTotal.WithLabelValues("unresolved_stop").Inc()

	expected := `
# HELP nerad_normalization_errors_total Departure board responses rejected during normalization
# TYPE nerad_normalization_errors_total counter
nerad_normalization_errors_total{kind="unresolved_stop"} 2
`
	err := testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "nerad_normalization_errors_total")
	require.NoError(t, err)
}

func TestDeparturesReturnedObserves(t *testing.T) {
	m := New()
	m.DeparturesReturned.Observe(12)

	count := testutil.CollectAndCount(m.DeparturesReturned)
	assert.Equal(t, 1, count)
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.RateLimitedTotal.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nerad_http_rate_limited_total 1")
}
