package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/isv-promotor/stockreview/internal/review"
	"github.com/isv-promotor/stockreview/internal/shared"
	"github.com/isv-promotor/stockreview/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Theme       shared.Theme
	// Exports enables the header download links when set.
	Exports *ExportLinks
	Data    any
}

// ExportLinks are the header actions for the current view.
type ExportLinks struct {
	CSV   string
	XLSX  string
	Print string
	PDF   string
}

// NewEngine parses the embedded templates with number formatting for tag.
func NewEngine(tag language.Tag) (*Engine, error) {
	printer := message.NewPrinter(tag)
	funcMap := template.FuncMap{
		"formatQty": func(v float64) string {
			return FormatQuantity(printer, v)
		},
		"formatInt":     FormatInt,
		"formatStamp":   FormatStamp,
		"sortIndicator": SortIndicator,
		"pageHref": func(state review.State, page int) string {
			return state.WithPage(page).Href("/")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render writes the named template with status 200.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus buffers the template so a failure never leaves a partial page.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Execute runs the named template into w.
func (e *Engine) Execute(w io.Writer, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}
