package departures

import "errors"

var (
	// ErrMalformedResponse reports a payload missing its required structure.
	ErrMalformedResponse = errors.New("malformed departure board response")
	// ErrMalformedTimestamp reports a departure timestamp that is not ISO-8601 with an offset.
	ErrMalformedTimestamp = errors.New("malformed departure timestamp")
	// ErrUnresolvedStop reports a departure whose stop is missing from the response's stop list.
	ErrUnresolvedStop = errors.New("departure references unknown stop")
)

// ErrorKind names the taxonomy member err belongs to, for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrUnresolvedStop):
		return "unresolved_stop"
	default:
		return "other"
	}
}
