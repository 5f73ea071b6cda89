package models

import (
	"time"

	"jizdninerad.cz/internal/departures"
)

// CurrentTimeData tells clients the server's notion of "now" in the transit
// zone and the start time it would pick for a board without one.
type CurrentTimeData struct {
	Time             int64  `json:"time"`
	ReadableTime     string `json:"readableTime"`
	Timezone         string `json:"timezone"`
	DefaultDeparture string `json:"defaultDeparture"`
}

func NewCurrentTimeData(now, defaultDeparture time.Time, loc *time.Location) CurrentTimeData {
	if loc == nil {
		loc = time.UTC
	}
	return CurrentTimeData{
		Time:             now.UnixMilli(),
		ReadableTime:     now.In(loc).Format(time.RFC3339),
		Timezone:         loc.String(),
		DefaultDeparture: departures.FormatTimeFrom(defaultDeparture.In(loc)),
	}
}
