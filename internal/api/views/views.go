// Package views renders the server's HTML pages and fragments.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mrz1836/go-sanitize"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

//go:embed templates/*.html
var templateFS embed.FS

// VenueMapZoom is the initial zoom of the venue map on the detail page
const VenueMapZoom = 15

// IndexData feeds the landing page
type IndexData struct {
	Title    string
	Location entities.Location
	Radius   int
	Bounds   geo.RadiusBounds
}

// DetailData feeds the event detail page
type DetailData struct {
	Event      *entities.EventRecord
	Info       template.HTML
	PleaseNote template.HTML
	MapZoom    int
}

// Renderer executes the embedded templates
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates
func New() (*Renderer, error) {
	tmpl, err := template.New("views").Funcs(template.FuncMap{
		"primaryImage": primaryImage,
		"venuePoint":   venuePoint,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew is New for package-level wiring and tests
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Index(w io.Writer, data IndexData) error {
	return r.execute(w, "index", data)
}

// EventCard renders one results-list card
func (r *Renderer) EventCard(w io.Writer, event *entities.EventRecord) error {
	return r.execute(w, "card", event)
}

// MapPopup renders the popup bound to an event marker
func (r *Renderer) MapPopup(w io.Writer, event *entities.EventRecord) error {
	return r.execute(w, "popup", event)
}

// EventDetail renders the full page for one event. Free text from the
// provider is treated as markdown with raw HTML stripped.
func (r *Renderer) EventDetail(w io.Writer, event *entities.EventRecord) error {
	return r.execute(w, "detail", DetailData{
		Event:      event,
		Info:       Markdown(event.Info),
		PleaseNote: Markdown(event.PleaseNote),
		MapZoom:    VenueMapZoom,
	})
}

// ErrorData feeds the error page
type ErrorData struct {
	Title   string
	Message string
}

func (r *Renderer) ErrorPage(w io.Writer, data ErrorData) error {
	return r.execute(w, "error", data)
}

// execute renders into a buffer first so a failing template never leaves a
// half-written response behind
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Markdown renders provider text as HTML
func Markdown(src string) template.HTML {
	src = strings.TrimSpace(sanitize.HTML(src))
	if src == "" {
		return ""
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(src))

	opts := html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML}
	out := markdown.Render(doc, html.NewRenderer(opts))

	return template.HTML(sanitize.XSS(string(out)))
}

func primaryImage(e *entities.EventRecord) *entities.Image {
	img, ok := e.PrimaryImage()
	if !ok {
		return nil
	}
	return &img
}

func venuePoint(e *entities.EventRecord) *geo.Point {
	p, ok := e.Venue.Point()
	if !ok {
		return nil
	}
	return &p
}
