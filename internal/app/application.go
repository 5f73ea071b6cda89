package app

import (
	"log/slog"
	"time"

	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/metrics"
)

// Application holds the dependencies shared by the HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config     appconf.Config
	Logger     *slog.Logger
	Clock      clock.Clock
	Metrics    *metrics.Metrics
	Location   *time.Location
	Departures *departures.Service
}

// Zone returns the transit zone, UTC when unset.
func (app *Application) Zone() *time.Location {
	if app.Location == nil {
		return time.UTC
	}
	return app.Location
}

// DefaultStops returns the configured default stops, falling back to the
// built-in ones.
func (app *Application) DefaultStops() []string {
	if len(app.Config.DefaultStops) > 0 {
		return app.Config.DefaultStops
	}
	return departures.DefaultStopNames
}
