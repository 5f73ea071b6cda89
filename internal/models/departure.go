package models

import (
	"time"

	"jizdninerad.cz/internal/departures"
)

// Departure is the JSON form of a departures.DepartureRecord.
type Departure struct {
	PredictedDeparture        string  `json:"predictedDeparture"`
	ScheduledDeparture        string  `json:"scheduledDeparture"`
	StopName                  string  `json:"stopName"`
	Route                     string  `json:"route"`
	Headsign                  string  `json:"headsign"`
	LastStopName              string  `json:"lastStopName"`
	Platform                  string  `json:"platform"`
	TimeUntilDepartureSeconds float64 `json:"timeUntilDepartureSeconds"`
	DelaySeconds              float64 `json:"delaySeconds"`
}

// DepartureBoard echoes the query alongside its departures.
type DepartureBoard struct {
	StopNames    []string    `json:"stopNames"`
	TimeFrom     string      `json:"timeFrom"`
	MinutesAfter int         `json:"minutesAfter"`
	Limit        int         `json:"limit"`
	Departures   []Departure `json:"departures"`
}

// NewDepartureBoard converts records, preserving their order. Timestamps are
// rendered in loc.
func NewDepartureBoard(q departures.StopQuery, records []departures.DepartureRecord, loc *time.Location) DepartureBoard {
	if loc == nil {
		loc = time.UTC
	}
	items := make([]Departure, 0, len(records))
	for _, r := range records {
		items = append(items, Departure{
			PredictedDeparture:        r.PredictedDeparture.In(loc).Format(time.RFC3339),
			ScheduledDeparture:        r.ScheduledDeparture.In(loc).Format(time.RFC3339),
			StopName:                  r.StopName,
			Route:                     r.Route,
			Headsign:                  r.Headsign,
			LastStopName:              r.LastStopName,
			Platform:                  r.Platform,
			TimeUntilDepartureSeconds: r.TimeUntilDeparture.Seconds(),
			DelaySeconds:              r.Delay().Seconds(),
		})
	}
	return DepartureBoard{
		StopNames:    q.StopNames,
		TimeFrom:     departures.FormatTimeFrom(q.TimeFrom.In(loc)),
		MinutesAfter: q.MinutesAfter,
		Limit:        q.Limit,
		Departures:   items,
	}
}
