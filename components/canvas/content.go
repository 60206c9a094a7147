package canvas

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ContentRenderer renders the content area of one widget kind.
type ContentRenderer interface {
	RenderContent(ctx context.Context, w Widget, box Size) (template.HTML, error)
}

// ContentRendererFunc adapts a function into a ContentRenderer.
type ContentRendererFunc func(ctx context.Context, w Widget, box Size) (template.HTML, error)

// RenderContent calls f.
func (f ContentRendererFunc) RenderContent(ctx context.Context, w Widget, box Size) (template.HTML, error) {
	return f(ctx, w, box)
}

// RendererRegistry maps widget kinds to content renderers.
type RendererRegistry struct {
	mu        sync.RWMutex
	renderers map[WidgetKind]ContentRenderer
}

// NewRendererRegistry builds a registry seeded with the graph, text box and logo renderers.
func NewRendererRegistry(charts *ChartRenderer) *RendererRegistry {
	if charts == nil {
		charts = NewChartRenderer()
	}
	reg := &RendererRegistry{renderers: map[WidgetKind]ContentRenderer{}}
	reg.renderers[KindGraph] = &GraphContent{Charts: charts}
	reg.renderers[KindTextBox] = NewTextBoxContent()
	reg.renderers[KindLogo] = LogoContent{}
	return reg
}

// Register replaces the renderer for kind.
func (r *RendererRegistry) Register(kind WidgetKind, renderer ContentRenderer) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", errInvalidKind, kind)
	}
	if renderer == nil {
		return fmt.Errorf("canvas: renderer for %s cannot be nil", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[kind] = renderer
	return nil
}

// Renderer returns the renderer for kind.
func (r *RendererRegistry) Renderer(kind WidgetKind) (ContentRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[kind]
	return renderer, ok
}

var chartFrameTemplate = template.Must(template.New("chart").Parse(
	`<iframe class="canvas-chart" title="{{.Title}}" sandbox="allow-scripts" srcdoc="{{.Document}}" width="100%" height="100%" frameborder="0"></iframe>`,
))

// GraphContent hosts a chart document in a sandboxed iframe.
type GraphContent struct {
	Charts *ChartRenderer
}

// RenderContent renders the stored definition sized to the content box.
func (g *GraphContent) RenderContent(_ context.Context, w Widget, box Size) (template.HTML, error) {
	if w.Chart == nil {
		return "", fmt.Errorf("canvas: graph widget %s has no chart", w.InstanceID)
	}
	doc, err := g.Charts.RenderDocument(w.InstanceID, w.Chart.Definition, box)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := chartFrameTemplate.Execute(&buf, map[string]string{"Title": w.Chart.Name, "Document": doc}); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec
}

// TextBoxContent renders text box content as sanitized Markdown where every
// line break is a visual break.
type TextBoxContent struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewTextBoxContent builds the text box renderer.
func NewTextBoxContent() *TextBoxContent {
	return &TextBoxContent{
		markdown: goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps())),
		policy:   bluemonday.UGCPolicy(),
	}
}

// RenderContent converts the content to HTML.
func (t *TextBoxContent) RenderContent(_ context.Context, w Widget, _ Size) (template.HTML, error) {
	if strings.TrimSpace(w.Content) == "" {
		return template.HTML(`<p class="canvas-textbox__hint">Double-click to edit</p>`), nil
	}
	html, err := t.RenderMarkdown(w.Content)
	if err != nil {
		return "", err
	}
	return template.HTML(html), nil //nolint:gosec
}

// RenderMarkdown converts and sanitizes a Markdown string.
func (t *TextBoxContent) RenderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := t.markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("canvas: render text box: %w", err)
	}
	return t.policy.Sanitize(buf.String()), nil
}

var logoTemplate = template.Must(template.New("logo").Parse(
	`<img class="canvas-logo" src="{{.}}" alt="Logo" draggable="false">`,
))

// LogoContent renders the uploaded image at full size.
type LogoContent struct{}

// RenderContent emits the image element for a data URI source.
func (LogoContent) RenderContent(_ context.Context, w Widget, _ Size) (template.HTML, error) {
	if !IsImageDataURI(w.Src) {
		return "", ErrInvalidImage
	}
	var buf bytes.Buffer
	if err := logoTemplate.Execute(&buf, template.URL(w.Src)); err != nil { //nolint:gosec
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec
}

// IsImageDataURI reports whether src is an inline image.
func IsImageDataURI(src string) bool {
	return strings.HasPrefix(strings.TrimSpace(src), "data:image/")
}

const placeholderMarkup = `<div class="canvas-widget__placeholder" role="img" aria-label="Content unavailable">Content unavailable</div>`

var frameTemplate = template.Must(template.New("frame").Parse(`<div class="{{.Class}}" data-instance-id="{{.InstanceID}}" data-kind="{{.Kind}}" style="{{.CSS}}">` +
	`<div class="canvas-widget__header drag-handle" style="{{.HeaderCSS}}">` +
	`<span class="canvas-widget__title">{{.Title}}</span>` +
	`{{if .HasMenu}}<button type="button" class="canvas-widget__menu" data-action="style-menu" aria-label="Style">&#8942;</button>{{end}}` +
	`<button type="button" class="canvas-widget__delete" data-action="delete" aria-label="Delete">&times;</button>` +
	`</div>` +
	`<div class="canvas-widget__content">{{.Content}}</div>` +
	`<span class="canvas-widget__resize" data-edges="bottom-right"></span>` +
	`</div>`))

var surfaceTemplate = template.Must(template.New("surface").Parse(
	`<div id="canvas-surface" class="canvas-surface" style="{{.CSS}}">{{range .Frames}}{{.}}{{end}}</div>`,
))

// FrameRenderer wraps content in the shared widget chrome: header with drag
// handle, style menu trigger and delete control.
type FrameRenderer struct {
	catalog   *Catalog
	registry  *RendererRegistry
	telemetry Telemetry
}

// NewFrameRenderer builds a frame renderer.
func NewFrameRenderer(cat *Catalog, registry *RendererRegistry, telemetry Telemetry) *FrameRenderer {
	if cat == nil {
		cat = DefaultCatalog()
	}
	if registry == nil {
		registry = NewRendererRegistry(nil)
	}
	return &FrameRenderer{catalog: cat, registry: registry, telemetry: normalizeTelemetry(telemetry)}
}

type frameView struct {
	Class      string
	InstanceID string
	Kind       WidgetKind
	CSS        template.CSS
	HeaderCSS  template.CSS
	Title      string
	HasMenu    bool
	Content    template.HTML
}

// RenderWidget renders a widget frame. Content failures degrade to an inert
// placeholder so the frame stays deletable.
func (f *FrameRenderer) RenderWidget(ctx context.Context, w Widget) template.HTML {
	header := f.catalog.HeaderHeight
	box := Size{Width: w.Size.Width, Height: w.Size.Height - header}
	if box.Height < 0 {
		box.Height = 0
	}
	content := template.HTML(placeholderMarkup)
	if renderer, ok := f.registry.Renderer(w.Kind); ok {
		rendered, err := renderer.RenderContent(ctx, w, box)
		if err != nil {
			f.telemetry.Record(ctx, "canvas.widget.render_error", map[string]any{
				"instance_id": w.InstanceID,
				"kind":        string(w.Kind),
				"error":       err.Error(),
			})
		} else {
			content = rendered
		}
	}
	styleCSS, blurred := StyleCSS(w.Kind, w.Style, f.catalog.BlurOpacityThreshold)
	class := "canvas-widget canvas-widget--" + string(w.Kind)
	if blurred {
		class += " canvas-widget--blurred"
	}
	_, hasMenu := StyleMenuFor(f.catalog, w.Kind)
	view := frameView{
		Class:      class,
		InstanceID: w.InstanceID,
		Kind:       w.Kind,
		CSS:        template.CSS(boxCSS(w.Rect()) + " " + styleCSS), //nolint:gosec
		HeaderCSS:  template.CSS("height: " + formatPx(header) + ";"),
		Title:      widgetTitle(w),
		HasMenu:    hasMenu,
		Content:    content,
	}
	var buf bytes.Buffer
	if err := frameTemplate.Execute(&buf, view); err != nil {
		return template.HTML(placeholderMarkup)
	}
	return template.HTML(buf.String()) //nolint:gosec
}

// SurfaceView is the input of RenderSurface.
type SurfaceView struct {
	Widgets    []Widget
	Bounds     Bounds
	Height     float64
	Background Background
}

// RenderSurface renders the surface with every widget absolutely positioned inside it.
func (f *FrameRenderer) RenderSurface(ctx context.Context, view SurfaceView) (template.HTML, error) {
	frames := make([]template.HTML, len(view.Widgets))
	for i, w := range view.Widgets {
		frames[i] = f.RenderWidget(ctx, w)
	}
	height := view.Height
	if height <= 0 {
		height = view.Bounds.Height
	}
	css := "position: relative;"
	if view.Bounds.Width > 0 {
		css += " width: " + formatPx(view.Bounds.Width) + ";"
	}
	if height > 0 {
		css += " height: " + formatPx(height) + ";"
	}
	if bg := view.Background.CSS(); bg != "" {
		css += " " + bg
	}
	var buf bytes.Buffer
	if err := surfaceTemplate.Execute(&buf, map[string]any{
		"CSS":    template.CSS(css), //nolint:gosec
		"Frames": frames,
	}); err != nil {
		return "", fmt.Errorf("canvas: render surface: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec
}

func widgetTitle(w Widget) string {
	switch w.Kind {
	case KindGraph:
		if w.Chart != nil {
			return w.Chart.Name
		}
	case KindTextBox:
		return "Text"
	case KindLogo:
		return "Logo"
	}
	return ""
}

func boxCSS(r Rect) string {
	return fmt.Sprintf("position: absolute; left: 0; top: 0; transform: translate(%s, %s); width: %s; height: %s;",
		formatPx(r.X), formatPx(r.Y), formatPx(r.Width), formatPx(r.Height))
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
