// Package departures turns a list of stop names and a start time into a
// departure board query, and turns the board's JSON response into typed,
// display-ready departure records.
//
// The package performs no I/O of its own. A Fetcher supplies the raw payload;
// Normalize is a pure function of that payload and the requested start time.
package departures
