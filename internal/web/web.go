// Package web serves the browser front end: the index page, its static assets and the service worker.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/index.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const serviceWorkerPath = "static/service-worker.js"

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// IndexData is the data rendered into the index page.
type IndexData struct {
	Title               string
	EnableServiceWorker bool
}

// HomeHandler renders the application shell.
func HomeHandler(enableServiceWorker bool, logger *zap.SugaredLogger) http.HandlerFunc {
	data := IndexData{Title: "Currency converter", EnableServiceWorker: enableServiceWorker}
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := indexTmpl.Execute(&buf, data); err != nil {
			logger.Errorw("Failed to render index", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

// StaticHandler serves embedded assets. Mount it under prefix, e.g. "/public/".
func StaticHandler(prefix string) http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}

// ServiceWorkerHandler serves the service worker script from the site root so its scope covers "/".
func ServiceWorkerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := staticFS.ReadFile(serviceWorkerPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
	}
}
