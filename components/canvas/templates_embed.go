package canvas

import (
	"embed"
	"io"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed assets/canvas.css
var canvasStylesheet string

// Renderer describes the template renderer contract used for pages and exports.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded templates.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// Stylesheet returns the canvas CSS rules inlined into pages and exports.
func Stylesheet() string {
	return canvasStylesheet
}
