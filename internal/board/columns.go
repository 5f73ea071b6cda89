// Package board holds the presentation of departure records: which columns
// are shown, in what order, under which labels, and how each value is
// formatted for display.
package board

import (
	"fmt"
	"time"

	"jizdninerad.cz/internal/departures"
)

// ClockLayout renders departure times as HH:mm:ss.
const ClockLayout = "15:04:05"

// Column is one displayed column of the departure table.
type Column struct {
	Key   string
	Label string
	// Numeric columns are right-aligned by renderers that care.
	Numeric bool
	Value   func(r departures.DepartureRecord, loc *time.Location) string
}

var columns = []Column{
	{
		Key:   "predicted_departure",
		Label: "Čas odjezdu",
		Value: func(r departures.DepartureRecord, loc *time.Location) string {
			return FormatClock(r.PredictedDeparture, loc)
		},
	},
	{
		Key:     "time_until_departure",
		Label:   "Doba do odjezdu",
		Numeric: true,
		Value: func(r departures.DepartureRecord, _ *time.Location) string {
			return FormatDuration(r.TimeUntilDeparture)
		},
	},
	{
		Key:   "stop",
		Label: "Zastávka",
		Value: func(r departures.DepartureRecord, _ *time.Location) string { return r.StopName },
	},
	{
		Key:   "route",
		Label: "Linka",
		Value: func(r departures.DepartureRecord, _ *time.Location) string { return r.Route },
	},
	{
		Key:   "headsign",
		Label: "Směr",
		Value: func(r departures.DepartureRecord, _ *time.Location) string { return r.Headsign },
	},
	{
		Key:   "scheduled_departure",
		Label: "Čas odjezdu dle jízdního řádu",
		Value: func(r departures.DepartureRecord, loc *time.Location) string {
			return FormatClock(r.ScheduledDeparture, loc)
		},
	},
	{
		Key:   "last_stop",
		Label: "Naposledy na zastávce",
		Value: func(r departures.DepartureRecord, _ *time.Location) string { return r.LastStopName },
	},
	{
		Key:   "platform",
		Label: "Nástupiště",
		Value: func(r departures.DepartureRecord, _ *time.Location) string { return r.Platform },
	},
}

// Columns returns the display columns in order.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// Header returns the column labels in order.
func Header() []string {
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.Label
	}
	return labels
}

// Rows formats every record into display strings, one row per record,
// keeping record order.
func Rows(records []departures.DepartureRecord, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = c.Value(r, loc)
		}
		rows[i] = row
	}
	return rows
}

// FormatClock shows t as wall-clock time in loc.
func FormatClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(ClockLayout)
}

// FormatDuration renders d as H:MM:SS, prefixed with '-' when negative.
// Sub-second remainders are dropped.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Truncate(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%s%d:%02d:%02d", sign, hours, minutes, seconds)
}
