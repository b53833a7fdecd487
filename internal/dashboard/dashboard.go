// Package dashboard serves the single-page operations dashboard. The page
// itself polls the JSON API for status, articles, logs, settings and
// server stats.
package dashboard

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
)

var page = template.Must(template.New("dashboard").Parse(dashboardHTML))

type pageData struct {
	Title   string
	Version string
	// RefreshMS is the polling period of the page in milliseconds.
	RefreshMS int
}

// Dashboard renders the dashboard page.
type Dashboard struct {
	html   []byte
	logger *slog.Logger
}

// New renders the page once for title and version.
func New(title, version string, logger *slog.Logger) (*Dashboard, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, pageData{Title: title, Version: version, RefreshMS: 5000}); err != nil {
		return nil, err
	}
	return &Dashboard{
		html:   buf.Bytes(),
		logger: logger.With("component", "dashboard"),
	}, nil
}

// ServeHTTP writes the dashboard page.
func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(d.html); err != nil {
		d.logger.Debug("dashboard write failed", "error", err)
	}
}
