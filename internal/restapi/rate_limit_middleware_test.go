package restapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jizdninerad.cz/internal/app"
	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, target, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func acceptKeys(keys ...string) func(string) bool {
	return func(key string) bool {
		for _, k := range keys {
			if k == key {
				return true
			}
		}
		return false
	}
}

func TestRateLimitMiddlewareLimitsPerKey(t *testing.T) {
	m := metrics.New()
	rl := NewRateLimitMiddleware(2, time.Hour, nil, acceptKeys("a", "b"), clock.NewMockClock(testNow), m)
	defer rl.Stop()
	handler := rl.Handler()(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "/?key=a", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "/?key=a", "").Code)

	rec := doRequest(handler, "/?key=a", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

	assert.Equal(t, http.StatusOK, doRequest(handler, "/?key=b", "").Code, "other keys have their own budget")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitedTotal))
}

func TestRateLimitMiddlewareFallsBackToClientIP(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Hour, nil, nil, clock.NewMockClock(testNow), nil)
	defer rl.Stop()
	handler := rl.Handler()(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "/", "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/", "10.0.0.1:5001").Code, "port is not part of the client identity")
	assert.Equal(t, http.StatusOK, doRequest(handler, "/", "10.0.0.2:5000").Code)
}

func TestRateLimitMiddlewareHeaderKey(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Hour, nil, acceptKeys("header-key"), clock.NewMockClock(testNow), nil)
	defer rl.Stop()
	handler := rl.Handler()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(app.APIKeyHeader, "header-key")
	key, isAPIKey := rl.clientKey(req)
	assert.Equal(t, "header-key", key)
	assert.True(t, isAPIKey)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitMiddlewareUnknownKeysShareClientIPBucket(t *testing.T) {
	tests := []struct {
		name     string
		validKey func(string) bool
	}{
		{"open api", nil},
		{"keys configured", acceptKeys("real")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimitMiddleware(1, time.Second, nil, tt.validKey, clock.NewMockClock(testNow), nil)
			defer rl.Stop()
			handler := rl.Handler()(okHandler())

			limited := 0
			for i := 0; i < 50; i++ {
				if doRequest(handler, fmt.Sprintf("/?key=x%d", i), "203.0.113.7:4000").Code == http.StatusTooManyRequests {
					limited++
				}
			}

			assert.Equal(t, 49, limited)
			rl.mu.RLock()
			defer rl.mu.RUnlock()
			assert.Len(t, rl.limiters, 1)
			assert.Contains(t, rl.limiters, "ip:203.0.113.7")
		})
	}
}

func TestRestAPIRateLimiterKeysOnlyByConfiguredKeys(t *testing.T) {
	open := NewRestAPI(&app.Application{Config: appconf.Config{RateLimit: 1}})
	defer open.Shutdown()
	handler := open.RateLimited(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "/?key=one", "198.51.100.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/?key=two", "198.51.100.1:1").Code,
		"an open API does not key buckets by client-chosen keys")

	keyed := NewRestAPI(&app.Application{Config: appconf.Config{RateLimit: 1, ApiKeys: []string{"TEST"}}})
	defer keyed.Shutdown()
	req := httptest.NewRequest(http.MethodGet, "/?key=TEST", nil)
	key, isAPIKey := keyed.rateLimiter.clientKey(req)
	assert.Equal(t, "TEST", key)
	assert.True(t, isAPIKey)

	req = httptest.NewRequest(http.MethodGet, "/?key=bogus", nil)
	req.RemoteAddr = "198.51.100.2:1"
	key, isAPIKey = keyed.rateLimiter.clientKey(req)
	assert.Equal(t, "ip:198.51.100.2", key)
	assert.False(t, isAPIKey)
}

func TestRateLimitMiddlewareExemptKeys(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Hour, []string{" vip "}, nil, clock.NewMockClock(testNow), nil)
	defer rl.Stop()
	handler := rl.Handler()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, "/?key=vip", "").Code)
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	rl := NewRateLimitMiddleware(0, time.Second, nil, nil, nil, nil)
	defer rl.Stop()
	handler := rl.Handler()(okHandler())

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, doRequest(handler, "/", "").Code)
	}
	assert.Empty(t, rl.limiters)
}

func TestRateLimitMiddlewareCleanup(t *testing.T) {
	mockClock := clock.NewMockClock(testNow)
	rl := NewRateLimitMiddleware(5, time.Second, nil, nil, mockClock, nil)
	defer rl.Stop()

	rl.getLimiter("old")
	mockClock.Advance(11 * time.Minute)
	rl.getLimiter("fresh")

	rl.cleanupOnce()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.limiters, "old")
	assert.Contains(t, rl.limiters, "fresh")
}

func TestRateLimitMiddlewareStopIsIdempotent(t *testing.T) {
	rl := NewRateLimitMiddleware(5, time.Second, nil, nil, nil, nil)
	rl.Stop()
	rl.Stop()
}
