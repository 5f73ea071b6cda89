package departures

import "time"

// RawResponse mirrors the departure board JSON. Pointers distinguish a
// missing member from an empty one.
type RawResponse struct {
	Stops      *[]RawStop      `json:"stops"`
	Departures *[]RawDeparture `json:"departures"`
}

type RawStop struct {
	StopID   *string `json:"stop_id"`
	StopName *string `json:"stop_name"`
}

type RawDeparture struct {
	DepartureTimestamp *RawDepartureTimestamp `json:"departure_timestamp"`
	Stop               *RawDepartureStop      `json:"stop"`
	Route              *RawRoute              `json:"route"`
	Trip               *RawTrip               `json:"trip"`
	LastStop           *RawLastStop           `json:"last_stop"`
}

type RawDepartureTimestamp struct {
	Predicted *string `json:"predicted"`
	Scheduled *string `json:"scheduled"`
}

type RawDepartureStop struct {
	ID           *string `json:"id"`
	PlatformCode *string `json:"platform_code"`
}

type RawRoute struct {
	ShortName *string `json:"short_name"`
}

type RawTrip struct {
	Headsign *string `json:"headsign"`
}

type RawLastStop struct {
	Name *string `json:"name"`
}

// DepartureRecord is one normalized departure.
type DepartureRecord struct {
	PredictedDeparture time.Time
	ScheduledDeparture time.Time
	StopName           string
	Route              string
	Headsign           string
	// LastStopName is passed through exactly as received; unlike the other
	// text fields it is not percent-decoded upstream.
	LastStopName       string
	Platform           string
	TimeUntilDeparture time.Duration
}

// Delay is how far the prediction is behind (positive) or ahead of the timetable.
func (r DepartureRecord) Delay() time.Duration {
	return r.PredictedDeparture.Sub(r.ScheduledDeparture)
}
