package departures

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// MinutesAfter is the length of the lookahead window requested upstream.
	MinutesAfter = 30
	// Limit caps the number of departures the upstream returns.
	Limit = 1000

	// ISO8601Layout serializes timeFrom with a numeric offset. Fractional
	// seconds only appear when non-zero.
	ISO8601Layout = "2006-01-02T15:04:05.999999999-07:00"

	stopNameSeparator = ";"
)

// DefaultStopNames is used when neither the caller nor the configuration
// names any stops.
var DefaultStopNames = []string{"Divadlo Gong", "Ocelářská"}

// StopQuery describes one departure board request.
type StopQuery struct {
	StopNames    []string
	TimeFrom     time.Time
	MinutesAfter int
	Limit        int
}

// NewStopQuery builds a query with the fixed lookahead window and row cap.
// stopNames must contain at least one entry; it is not checked here.
func NewStopQuery(stopNames []string, timeFrom time.Time) StopQuery {
	names := make([]string, len(stopNames))
	copy(names, stopNames)

	return StopQuery{
		StopNames:    names,
		TimeFrom:     timeFrom,
		MinutesAfter: MinutesAfter,
		Limit:        Limit,
	}
}

// Values renders the query as URL parameters. Every stop gets its own
// "names" entry, in order.
func (q StopQuery) Values() url.Values {
	values := url.Values{}
	for _, name := range q.StopNames {
		values.Add("names", name)
	}
	values.Set("timeFrom", FormatTimeFrom(q.TimeFrom))
	values.Set("minutesAfter", strconv.Itoa(q.MinutesAfter))
	values.Set("limit", strconv.Itoa(q.Limit))
	return values
}

// FormatTimeFrom formats t the way the upstream expects timeFrom.
func FormatTimeFrom(t time.Time) string {
	return t.Format(ISO8601Layout)
}

// ParseStopNames splits semicolon-delimited user input into stop names,
// trimming whitespace and skipping empty entries.
func ParseStopNames(input string) []string {
	var names []string
	for _, part := range strings.Split(input, stopNameSeparator) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// JoinStopNames is the inverse of ParseStopNames.
func JoinStopNames(names []string) string {
	return strings.Join(names, stopNameSeparator)
}
