// Package web holds the embedded HTML templates.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// DateLayout is how session times are shown and entered.
const DateLayout = "2006-01-02 15:04"

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(DateLayout) },
}

// Templates parses every page. Pages are addressed by file name, e.g.
// "sessions.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}
