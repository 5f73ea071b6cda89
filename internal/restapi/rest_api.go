package restapi

import (
	"time"

	"jizdninerad.cz/internal/app"
)

// RestAPI serves the JSON endpoints on top of the shared Application.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates the API and starts its rate limiter.
func NewRestAPI(app *app.Application) *RestAPI {
	validKey := func(key string) bool {
		return app.APIKeysRequired() && !app.IsInvalidAPIKey(key)
	}
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.ApiKeys, validKey, app.Clock, app.Metrics),
	}
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
