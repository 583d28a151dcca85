/*
Copyright © 2026 Vestigio <dev@vestigio.app>
*/

package main

import (
	"embed"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

//go:embed assets/*
var assets embed.FS

//go:embed pages/*.html
var pages embed.FS

var pageTemplates = template.Must(template.New("pages").ParseFS(pages, "pages/*.html"))

func getFavicon() string {
	return `<link rel="icon" type="image/svg+xml" href="/favicon.svg">
	<meta name="theme-color" content="#1a1025">`
}

// renderPage writes a full HTML page from the embedded page templates.
func renderPage(a *app, w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	securityHeaders(a.cfg, w)

	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error().Err(err).Str("page", name).Msg("SERVE: Page render failed")
	}
}

func serveAssets(a *app, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, a.cfg.prefix), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(a.cfg, w)

		ext := strings.ToLower(filepath.Ext(fname))
		switch ext {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		case ".svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		}

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		a.logger.Debug().Msgf("SERVE: Asset %s (%s) to %s", fname, humanReadableSize(int64(written)), realIP(r))
	}
}

func serveFavicon(a *app, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data, err := assets.ReadFile("assets/favicon.svg")
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("Content-Type", "image/svg+xml")
		securityHeaders(a.cfg, w)

		if _, err = w.Write(data); err != nil {
			errs <- err

			return
		}
	}
}
