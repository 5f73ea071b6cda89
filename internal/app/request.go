package app

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/departures"
)

var (
	dateLayouts = []string{"2006-01-02", "02.01.2006"}
	timeLayouts = []string{"15:04", "15:04:05"}
)

// QueryFromRequest reads the stop list and start time from r's query string.
//
// Stops come from repeated "names", else semicolon-separated "stops", else
// repeated "zastavka", else the configured defaults. The start time comes
// from an RFC 3339 "timeFrom", else from "date" and "time" read as wall-clock
// values in the transit zone; either part defaults to now in that zone,
// floored to five minutes.
func (app *Application) QueryFromRequest(r *http.Request) (departures.StopQuery, map[string][]string) {
	return app.QueryFromValues(r.URL.Query())
}

// QueryFromValues is QueryFromRequest for already parsed parameters.
func (app *Application) QueryFromValues(query url.Values) (departures.StopQuery, map[string][]string) {
	var fieldErrors map[string][]string

	addError := func(field, msg string) {
		if fieldErrors == nil {
			fieldErrors = make(map[string][]string)
		}
		fieldErrors[field] = append(fieldErrors[field], msg)
	}

	names := StopNamesFromValues(query)
	if names == nil {
		names = app.DefaultStops()
	}

	loc := app.Zone()
	timeFrom := clock.DefaultDeparture(app.Clock, loc)

	if val := strings.TrimSpace(query.Get("timeFrom")); val != "" {
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			timeFrom = t.In(loc)
		} else {
			addError("timeFrom", "must be an RFC 3339 timestamp with an offset")
		}
	} else {
		date := timeFrom
		if val := strings.TrimSpace(query.Get("date")); val != "" {
			if d, ok := parseInLocation(dateLayouts, val, loc); ok {
				date = d
			} else {
				addError("date", "must be YYYY-MM-DD or DD.MM.YYYY")
			}
		}

		hour, minute, second := timeFrom.Hour(), timeFrom.Minute(), 0
		if val := strings.TrimSpace(query.Get("time")); val != "" {
			if t, ok := parseInLocation(timeLayouts, val, time.UTC); ok {
				hour, minute, second = t.Hour(), t.Minute(), t.Second()
			} else {
				addError("time", "must be HH:MM or HH:MM:SS")
			}
		}

		timeFrom = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, loc)
	}

	return departures.NewStopQuery(names, timeFrom), fieldErrors
}

// StopNamesFromValues returns the stops named in query, or nil when it names none.
func StopNamesFromValues(query url.Values) []string {
	if names := nonBlank(query["names"]); len(names) > 0 {
		return names
	}
	if names := departures.ParseStopNames(query.Get("stops")); len(names) > 0 {
		return names
	}
	if names := nonBlank(query["zastavka"]); len(names) > 0 {
		return names
	}
	return nil
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseInLocation(layouts []string, value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
