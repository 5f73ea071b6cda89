// Package webui renders the departure board as an HTML page.
package webui

import (
	"embed"
	"html/template"
	"net/http"

	"jizdninerad.cz/internal/app"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// WebUI serves the human-facing pages.
type WebUI struct {
	*app.Application

	// Limit wraps handlers that query the upstream. Nil means unlimited.
	Limit func(http.Handler) http.Handler
}

func New(application *app.Application, limit func(http.Handler) http.Handler) *WebUI {
	return &WebUI{Application: application, Limit: limit}
}

// SetWebUIRoutes registers the pages on mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	index := http.Handler(http.HandlerFunc(webUI.indexHandler))
	if webUI.Limit != nil {
		index = webUI.Limit(index)
	}
	mux.Handle("GET /{$}", index)
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
	mux.HandleFunc("GET /static/{file}", webUI.staticHandler)
}
