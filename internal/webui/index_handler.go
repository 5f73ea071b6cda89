package webui

import (
	"bytes"
	"log/slog"
	"net/http"
	"sort"

	"jizdninerad.cz/internal/board"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/restapi"
)

type indexData struct {
	Title   string
	Stops   string
	Date    string
	Time    string
	Header  []string
	Numeric []bool
	Rows    [][]string
	Error   string
	Empty   bool
}

// indexHandler renders the form and, below it, the board for the submitted
// (or default) stops and start time. A failed lookup shows an error banner
// and no rows.
func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	loc := webUI.Zone()

	q, fieldErrors := webUI.QueryFromRequest(r)
	data := indexData{
		Title:  webUI.Config.Title,
		Stops:  departures.JoinStopNames(q.StopNames),
		Date:   q.TimeFrom.In(loc).Format("2006-01-02"),
		Time:   q.TimeFrom.In(loc).Format("15:04"),
		Header: board.Header(),
	}
	for _, col := range board.Columns() {
		data.Numeric = append(data.Numeric, col.Numeric)
	}

	status := http.StatusOK
	switch {
	case len(fieldErrors) > 0:
		status = http.StatusBadRequest
		data.Error = fieldErrorText(fieldErrors)
	case webUI.Departures == nil:
		status = http.StatusServiceUnavailable
		data.Error = "Odjezdy nejsou k dispozici."
	default:
		records, err := webUI.Departures.Lookup(r.Context(), q)
		if err != nil {
			status = restapi.UpstreamErrorStatus(err)
			data.Error = upstreamErrorText(status, err)
			logging.LogError(logger, "departure board page failed", err,
				slog.String("kind", departures.ErrorKind(err)))
			break
		}
		data.Rows = board.Rows(records, loc)
		data.Empty = len(records) == 0
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logging.LogError(logger, "failed to execute index template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// upstreamErrorText describes a failed lookup without the upstream's own
// message, which may quote its response body.
func upstreamErrorText(status int, err error) string {
	switch {
	case status == http.StatusGatewayTimeout:
		return "Nepodařilo se načíst odjezdy: služba neodpověděla včas."
	case departures.ErrorKind(err) != "other":
		return "Nepodařilo se načíst odjezdy: služba vrátila nepoužitelnou odpověď."
	default:
		return "Nepodařilo se načíst odjezdy: služba není dostupná."
	}
}

func fieldErrorText(fieldErrors map[string][]string) string {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var buf bytes.Buffer
	buf.WriteString("Neplatný vstup:")
	for _, field := range fields {
		for _, msg := range fieldErrors[field] {
			buf.WriteString(" ")
			buf.WriteString(field)
			buf.WriteString(" ")
			buf.WriteString(msg)
			buf.WriteString(";")
		}
	}
	return buf.String()
}
