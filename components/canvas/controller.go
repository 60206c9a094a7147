package canvas

import (
	"context"
	"errors"
	"html/template"
	"io"
)

const defaultPageTemplate = "canvas.html"

var errMissingRenderer = errors.New("canvas: template renderer not configured")

// CanvasReader is the read side of the Service the controller needs.
type CanvasReader interface {
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
	RenderCanvas(ctx context.Context, userID string) (template.HTML, error)
}

// ControllerOptions wires the page controller.
type ControllerOptions struct {
	Service  CanvasReader
	Renderer Renderer
	Template string
	Title    string
}

// Controller renders the canvas page for a user.
type Controller struct {
	service  CanvasReader
	renderer Renderer
	template string
	title    string
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = defaultPageTemplate
	}
	title := opts.Title
	if title == "" {
		title = "Dashboard"
	}
	return &Controller{service: opts.Service, renderer: opts.Renderer, template: tpl, title: title}
}

// Payload returns the session state as served by the JSON layout endpoint.
func (c *Controller) Payload(ctx context.Context, userID string) (Snapshot, error) {
	if c.service == nil {
		return Snapshot{}, nil
	}
	return c.service.Snapshot(ctx, userID)
}

// RenderTemplate writes the full canvas page to out.
func (c *Controller) RenderTemplate(ctx context.Context, userID string, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	snapshot, err := c.Payload(ctx, userID)
	if err != nil {
		return err
	}
	var surface template.HTML
	if c.service != nil {
		if surface, err = c.service.RenderCanvas(ctx, userID); err != nil {
			return err
		}
	}
	_, err = c.renderer.Render(c.template, map[string]any{
		"title":       c.title,
		"stylesheet":  Stylesheet(),
		"user_id":     snapshot.UserID,
		"session_id":  snapshot.SessionID,
		"library":     snapshot.Library,
		"background":  snapshot.Background,
		"backgrounds": BackgroundPresets(),
		"surface":     string(surface),
	}, out)
	return err
}
