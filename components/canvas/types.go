package canvas

import (
	"context"
	"time"
)

// WidgetKind discriminates the widget variants a canvas can host.
type WidgetKind string

const (
	KindGraph   WidgetKind = "graph"
	KindTextBox WidgetKind = "textbox"
	KindLogo    WidgetKind = "logo"
)

// Valid reports whether the kind is one of the supported variants.
func (k WidgetKind) Valid() bool {
	switch k {
	case KindGraph, KindTextBox, KindLogo:
		return true
	}
	return false
}

// Point is a pointer coordinate, either page or widget local depending on the caller.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position is the canvas-local translate offset of a widget.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is the pixel box of a widget.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect combines position and size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Bounds is the containment box of the canvas surface, anchored at the origin.
// A zero dimension is treated as unbounded on that axis.
type Bounds struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// WidgetStyle holds the per-kind visual attributes. Graph widgets use only the
// background fields; logo widgets carry no style at all.
type WidgetStyle struct {
	BackgroundColor   string  `json:"backgroundColor,omitempty" yaml:"background_color,omitempty"`
	BackgroundOpacity float64 `json:"backgroundOpacity" yaml:"background_opacity"`
	TextColor         string  `json:"textColor,omitempty" yaml:"text_color,omitempty"`
	FontSize          int     `json:"fontSize,omitempty" yaml:"font_size,omitempty"`
	FontFamily        string  `json:"fontFamily,omitempty" yaml:"font_family,omitempty"`
	TextAlign         string  `json:"textAlign,omitempty" yaml:"text_align,omitempty"`
}

// ChartDefinition is the declarative figure (traces plus layout) handed to the chart renderer.
type ChartDefinition struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

// ChartEntry is a named chart owned by a user in the external chart source.
type ChartEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Definition ChartDefinition `json:"chart_definition"`
}

// Widget is a single placed item on the canvas.
type Widget struct {
	InstanceID string       `json:"instanceId"`
	Kind       WidgetKind   `json:"kind"`
	Position   Position     `json:"position"`
	Size       Size         `json:"size"`
	Style      *WidgetStyle `json:"style,omitempty"`
	Chart      *ChartEntry  `json:"chart,omitempty"`
	Content    string       `json:"content,omitempty"`
	Src        string       `json:"src,omitempty"`
}

// Rect returns the bounding box of the widget.
func (w Widget) Rect() Rect {
	return Rect{X: w.Position.X, Y: w.Position.Y, Width: w.Size.Width, Height: w.Size.Height}
}

// ChartID returns the chart entry identifier a graph widget references.
func (w Widget) ChartID() string {
	if w.Kind != KindGraph || w.Chart == nil {
		return ""
	}
	return w.Chart.ID
}

// ChartSource fetches the chart library of a user.
type ChartSource interface {
	FetchCharts(ctx context.Context, userID string) ([]ChartEntry, error)
}

// LayoutStore is the durable key/value store holding serialized layouts.
type LayoutStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// IDGenerator produces widget instance identifiers.
type IDGenerator interface {
	NewID() string
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	if f == nil {
		return false
	}
	return f(ctx, prompt)
}

// Confirmed returns a Confirmer carrying an already collected answer.
func Confirmed(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return answer })
}

// EventHook notifies transports (SSE/WebSocket) about canvas changes.
type EventHook interface {
	CanvasUpdated(ctx context.Context, event Event) error
}

// Event describes a change transports might care about.
type Event struct {
	UserID     string     `json:"userId"`
	SessionID  string     `json:"sessionId,omitempty"`
	InstanceID string     `json:"instanceId,omitempty"`
	Kind       WidgetKind `json:"kind,omitempty"`
	Reason     string     `json:"reason"`
	Notice     *Notice    `json:"notice,omitempty"`
	At         time.Time  `json:"at"`
}
