package webui

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"jizdninerad.cz/internal/logging"
)

var allowedExtensions = map[string]bool{
	".css": true, ".js": true,
	".png": true, ".svg": true, ".ico": true,
}

// startTime stands in for the modification time of embedded assets.
var startTime = time.Now()

func (webUI *WebUI) staticHandler(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("file")

	if strings.Contains(fileName, "..") || strings.ContainsAny(fileName, `/\`) {
		logging.FromContext(r.Context()).Warn("potential path traversal attempt blocked", slog.String("file", fileName))
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}

	if !allowedExtensions[strings.ToLower(path.Ext(fileName))] {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	content, err := fs.ReadFile(staticFS, path.Join("static", fileName))
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, fileName, startTime, bytes.NewReader(content))
}
