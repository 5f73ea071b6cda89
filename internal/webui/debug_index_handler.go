package webui

import (
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/logging"
)

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, r *http.Request, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := templates.ExecuteTemplate(w, "debug_index.html", debugData{
		Title: title,
		Pre:   content,
	})
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to execute debug template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps internal state for the query in the URL. Not
// available in production.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "config":
		cfg := webUI.Config
		if cfg.Golemio.AccessToken != "" {
			cfg.Golemio.AccessToken = "[redacted]"
		}
		cfg.ApiKeys = nil
		data = cfg
		title = "Configuration"
	case "query":
		q, fieldErrors := webUI.QueryFromRequest(r)
		data = map[string]interface{}{
			"query":       q,
			"values":      q.Values(),
			"fieldErrors": fieldErrors,
		}
		title = "Departure Board - Query"
	case "departures":
		q, fieldErrors := webUI.QueryFromRequest(r)
		switch {
		case len(fieldErrors) > 0:
			data = fieldErrors
		case webUI.Departures == nil:
			data = map[string]string{"error": "departure board client not configured"}
		default:
			records, err := webUI.Departures.Lookup(r.Context(), q)
			if err != nil {
				data = map[string]string{"error": err.Error()}
			} else {
				data = records
			}
		}
		title = "Departure Board - Records"
	default:
		data = map[string]string{
			"error": "Please use one of the following: config, query, departures.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, r, title, data)
}
