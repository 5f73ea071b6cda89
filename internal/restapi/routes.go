package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Cache lifetimes in seconds. Departures are live data and never cached.
const (
	cacheConfig     = 300
	cacheClock      = 30
	cacheDepartures = 0
)

// SetRoutes registers the API endpoints on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/departures.json", api.RateLimited(api.protected(cacheDepartures, api.departuresHandler)))
	mux.Handle("GET /api/config.json", api.protected(cacheConfig, api.configHandler))
	mux.Handle("GET /api/current-time.json", api.protected(cacheClock, api.currentTimeHandler))

	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", api.Metrics.Handler())
	}
}

// RateLimited wraps next in the per-client rate limiter.
func (api *RestAPI) RateLimited(next http.Handler) http.Handler {
	if api.rateLimiter == nil {
		return next
	}
	return api.rateLimiter.Handler()(next)
}

// protected checks the API key and sets Cache-Control for a JSON endpoint.
func (api *RestAPI) protected(cacheSeconds int, handler http.HandlerFunc) http.Handler {
	return CacheControlMiddleware(cacheSeconds, api.validateAPIKey(handler))
}

func (api *RestAPI) validateAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler wraps the fully routed mux in the server-wide middleware:
// request IDs, request logging, metrics and response compression.
func (api *RestAPI) Handler(mux *http.ServeMux) http.Handler {
	var handler http.Handler = gzhttp.GzipHandler(mux)
	handler = MetricsHandler(api.Metrics)(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return RequestIDMiddleware(handler)
}
