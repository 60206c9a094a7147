package canvas

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// DocumentFilename is the name of the standalone document export.
	DocumentFilename = "dashboard.html"
	// ImageFilename is the name of the raster export.
	ImageFilename = "dashboard.png"

	exportTemplate = "canvas_export.html"
)

// Artifact is a produced export file.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// ExportInput is the read-only view an export is built from.
type ExportInput struct {
	UserID     string
	Title      string
	Widgets    []Widget
	Bounds     Bounds
	Background Background
}

// ContentHeight is the taller of the surface and the lowest widget bottom.
func ContentHeight(bounds Bounds, widgets []Widget) float64 {
	height := bounds.Height
	for _, w := range widgets {
		height = math.Max(height, w.Rect().Bottom())
	}
	return height
}

// Exporter produces the standalone document and raster exports.
type Exporter struct {
	renderer   Renderer
	frames     *FrameRenderer
	rasterizer Rasterizer
	catalog    *Catalog
	notifier   Notifier
	telemetry  Telemetry
	now        func() time.Time
}

// ExporterOptions wires an Exporter.
type ExporterOptions struct {
	Renderer   Renderer
	Frames     *FrameRenderer
	Rasterizer Rasterizer
	Catalog    *Catalog
	Notifier   Notifier
	Telemetry  Telemetry
}

// NewExporter builds an exporter. A missing template renderer falls back to
// the embedded templates.
func NewExporter(opts ExporterOptions) (*Exporter, error) {
	renderer := opts.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("canvas: init export templates: %w", err)
		}
	}
	cat := opts.Catalog
	if cat == nil {
		cat = DefaultCatalog()
	}
	frames := opts.Frames
	if frames == nil {
		frames = NewFrameRenderer(cat, nil, opts.Telemetry)
	}
	rasterizer := opts.Rasterizer
	if rasterizer == nil {
		rasterizer = NewGGRasterizer(opts.Telemetry)
	}
	return &Exporter{
		renderer:   renderer,
		frames:     frames,
		rasterizer: rasterizer,
		catalog:    cat,
		notifier:   normalizeNotifier(opts.Notifier),
		telemetry:  normalizeTelemetry(opts.Telemetry),
		now:        time.Now,
	}, nil
}

// Document renders the standalone HTML export. A failure notifies the user
// and produces no artifact.
func (e *Exporter) Document(ctx context.Context, input ExportInput) (*Artifact, error) {
	doc, err := e.document(ctx, input)
	if err != nil {
		return nil, e.fail(ctx, input.UserID, DocumentFilename, err)
	}
	return e.succeed(ctx, input.UserID, &Artifact{
		Filename:    DocumentFilename,
		ContentType: "text/html; charset=utf-8",
		Data:        []byte(doc),
	}), nil
}

// Image rasterizes the surface into a PNG export.
func (e *Exporter) Image(ctx context.Context, input ExportInput) (*Artifact, error) {
	doc, err := e.document(ctx, input)
	if err != nil {
		return nil, e.fail(ctx, input.UserID, ImageFilename, err)
	}
	png, err := e.rasterizer.Rasterize(ctx, RasterInput{
		Document:      doc,
		Widgets:       cloneWidgets(input.Widgets),
		Bounds:        input.Bounds,
		ContentHeight: ContentHeight(input.Bounds, input.Widgets),
		HeaderHeight:  e.catalog.HeaderHeight,
		Background:    input.Background,
	})
	if err != nil {
		return nil, e.fail(ctx, input.UserID, ImageFilename, err)
	}
	return e.succeed(ctx, input.UserID, &Artifact{
		Filename:    ImageFilename,
		ContentType: "image/png",
		Data:        png,
	}), nil
}

func (e *Exporter) document(ctx context.Context, input ExportInput) (string, error) {
	height := ContentHeight(input.Bounds, input.Widgets)
	width := input.Bounds.Width
	for _, w := range input.Widgets {
		width = math.Max(width, w.Rect().Right())
	}
	surface, err := e.frames.RenderSurface(ctx, SurfaceView{
		Widgets:    input.Widgets,
		Bounds:     Bounds{Width: width, Height: height},
		Height:     height,
		Background: input.Background,
	})
	if err != nil {
		return "", err
	}
	title := input.Title
	if title == "" {
		title = "Dashboard"
	}
	var buf bytes.Buffer
	if _, err := e.renderer.Render(exportTemplate, map[string]any{
		"title":          title,
		"stylesheet":     Stylesheet(),
		"surface":        string(surface),
		"content_height": formatNumber(height),
		"width":          formatNumber(width),
		"generated_at":   e.now().UTC().Format(time.RFC3339),
	}, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Exporter) fail(ctx context.Context, userID, filename string, err error) error {
	e.telemetry.Record(ctx, "canvas.export.failed", map[string]any{
		"user_id":  userID,
		"filename": filename,
		"error":    err.Error(),
	})
	e.notifier.Notify(ctx, userID, Notice{Level: NoticeError, Message: "Export failed: " + err.Error(), Code: CodeExportFailed})
	return fmt.Errorf("%w: %s: %w", ErrExportFailed, filename, err)
}

func (e *Exporter) succeed(ctx context.Context, userID string, artifact *Artifact) *Artifact {
	e.telemetry.Record(ctx, "canvas.export.completed", map[string]any{
		"user_id":  userID,
		"filename": artifact.Filename,
		"bytes":    len(artifact.Data),
	})
	e.notifier.Notify(ctx, userID, Notice{Level: NoticeSuccess, Message: "Exported " + artifact.Filename})
	return artifact
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Ceil(v), 'f', 0, 64)
}
