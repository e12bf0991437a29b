package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// pageData is what every template receives. Error/Success/Info hold at most
// one drained flash message; Fields carries the prefill values.
type pageData struct {
	Title   string
	User    *model.SessionUser
	Error   string
	Success string
	Info    string
	Fields  map[string]string
}

// Field returns the prefill value for a form input, empty when none survived
// the redirect.
func (d pageData) Field(name string) string {
	return d.Fields[name]
}

// Checked reports whether a prefilled checkbox should render checked.
func (d pageData) Checked(name string) bool {
	return truthy(d.Fields[name])
}

// withFlash folds a drained flash entry into the page data.
func (d pageData) withFlash(entry flash.Entry, ok bool) pageData {
	if !ok {
		return d
	}
	switch entry.Kind {
	case flash.KindSuccess:
		d.Success = entry.Message
	case flash.KindInfo:
		d.Info = entry.Message
	default:
		d.Error = entry.Message
	}
	d.Fields = entry.Fields
	return d
}

func (re *Renderer) Render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := re.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
	}
}
