package departures

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// timestampLayouts are tried in order. All of them require an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Normalize decodes a departure board payload and normalizes it.
func Normalize(payload []byte, timeFrom time.Time) ([]DepartureRecord, error) {
	var raw RawResponse
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return NormalizeResponse(raw, timeFrom)
}

// NormalizeResponse maps raw into one record per departure, in input order.
// It either succeeds for every departure or returns no records at all.
func NormalizeResponse(raw RawResponse, timeFrom time.Time) ([]DepartureRecord, error) {
	directory, err := buildStopDirectory(raw.Stops)
	if err != nil {
		return nil, err
	}

	if raw.Departures == nil {
		return nil, fmt.Errorf("%w: missing departures", ErrMalformedResponse)
	}

	records := make([]DepartureRecord, 0, len(*raw.Departures))
	for i, dep := range *raw.Departures {
		record, err := normalizeDeparture(dep, directory, timeFrom)
		if err != nil {
			return nil, fmt.Errorf("departure %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// buildStopDirectory maps stop IDs to decoded stop names. A repeated ID
// keeps its last name.
func buildStopDirectory(stops *[]RawStop) (map[string]string, error) {
	if stops == nil {
		return nil, fmt.Errorf("%w: missing stops", ErrMalformedResponse)
	}

	directory := make(map[string]string, len(*stops))
	for i, stop := range *stops {
		if stop.StopID == nil || stop.StopName == nil {
			return nil, fmt.Errorf("%w: stop %d lacks stop_id or stop_name", ErrMalformedResponse, i)
		}
		directory[*stop.StopID] = unquote(*stop.StopName)
	}
	return directory, nil
}

func normalizeDeparture(dep RawDeparture, directory map[string]string, timeFrom time.Time) (DepartureRecord, error) {
	if dep.DepartureTimestamp == nil {
		return DepartureRecord{}, fmt.Errorf("%w: missing departure_timestamp", ErrMalformedResponse)
	}
	predicted, err := parseTimestamp("predicted", dep.DepartureTimestamp.Predicted)
	if err != nil {
		return DepartureRecord{}, err
	}
	scheduled, err := parseTimestamp("scheduled", dep.DepartureTimestamp.Scheduled)
	if err != nil {
		return DepartureRecord{}, err
	}

	if dep.Stop == nil || dep.Stop.ID == nil {
		return DepartureRecord{}, fmt.Errorf("%w: missing stop.id", ErrMalformedResponse)
	}
	stopName, ok := directory[*dep.Stop.ID]
	if !ok {
		return DepartureRecord{}, fmt.Errorf("%w: %q", ErrUnresolvedStop, *dep.Stop.ID)
	}

	if dep.Route == nil || dep.Route.ShortName == nil {
		return DepartureRecord{}, fmt.Errorf("%w: missing route.short_name", ErrMalformedResponse)
	}
	if dep.Trip == nil || dep.Trip.Headsign == nil {
		return DepartureRecord{}, fmt.Errorf("%w: missing trip.headsign", ErrMalformedResponse)
	}
	if dep.LastStop == nil || dep.LastStop.Name == nil {
		return DepartureRecord{}, fmt.Errorf("%w: missing last_stop.name", ErrMalformedResponse)
	}

	// Some stops have no platform; the upstream sends null.
	var platform string
	if dep.Stop.PlatformCode != nil {
		platform = unquote(*dep.Stop.PlatformCode)
	}

	return DepartureRecord{
		PredictedDeparture: predicted,
		ScheduledDeparture: scheduled,
		StopName:           stopName,
		Route:              unquote(*dep.Route.ShortName),
		Headsign:           unquote(*dep.Trip.Headsign),
		LastStopName:       *dep.LastStop.Name,
		Platform:           platform,
		TimeUntilDeparture: predicted.Sub(timeFrom),
	}, nil
}

func parseTimestamp(field string, value *string) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrMalformedTimestamp, field)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s %q", ErrMalformedTimestamp, field, *value)
}

// unquote reverses percent-encoding once. Malformed escapes are kept as-is
// and '+' is not treated as a space. Bytes that do not form valid UTF-8
// become U+FFFD.
func unquote(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		return strings.ToValidUTF8(decoded, "\uFFFD")
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := hex.DecodeString(s[i+1 : i+3]); err == nil {
				b.WriteByte(v[0])
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}
