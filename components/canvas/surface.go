package canvas

import (
	"context"
	"fmt"
	"sync"
)

// SourceChartLibrary tags drag payloads that originate in the chart library panel.
const SourceChartLibrary = "chart-library"

// DragPayload is what the library panel attaches to a drag.
type DragPayload struct {
	Source string     `json:"source"`
	Entry  ChartEntry `json:"entry"`
}

// SurfaceGeometry is the page placement of the drop surface.
type SurfaceGeometry struct {
	Offset Point  `json:"offset"`
	Bounds Bounds `json:"bounds"`
}

const cascadeStep = 24

// Surface is the drop target and containment boundary of a dashboard.
type Surface struct {
	userID   string
	layout   *Layout
	catalog  *Catalog
	ids      IDGenerator
	notifier Notifier

	mu       sync.RWMutex
	geometry SurfaceGeometry
	cascade  int
}

// NewSurface builds a surface over layout.
func NewSurface(userID string, layout *Layout, cat *Catalog, ids IDGenerator, notifier Notifier, geometry SurfaceGeometry) *Surface {
	if cat == nil {
		cat = DefaultCatalog()
	}
	if ids == nil {
		ids = NewULIDGenerator()
	}
	return &Surface{
		userID:   userID,
		layout:   layout,
		catalog:  cat,
		ids:      ids,
		notifier: normalizeNotifier(notifier),
		geometry: geometry,
	}
}

// Geometry returns the current surface placement.
func (s *Surface) Geometry() SurfaceGeometry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geometry
}

// Bounds returns the containment bounds.
func (s *Surface) Bounds() Bounds {
	return s.Geometry().Bounds
}

// SetGeometry updates the surface placement and pulls every widget back
// inside the new bounds, shrinking boxes that no longer fit.
func (s *Surface) SetGeometry(geometry SurfaceGeometry) []Widget {
	s.mu.Lock()
	s.geometry = geometry
	s.mu.Unlock()
	var moved []Widget
	for _, w := range s.layout.Widgets() {
		size := FitSize(w.Size, s.catalog.MinSize(w.Kind), geometry.Bounds)
		pos := ClampPosition(w.Position, size, geometry.Bounds)
		if pos == w.Position && size == w.Size {
			continue
		}
		if updated, ok := s.layout.Update(w.InstanceID, WidgetPatch{Position: &pos, Size: &size}); ok {
			moved = append(moved, updated)
		}
	}
	return moved
}

// Drop places a graph widget centred on the client point of the drop.
func (s *Surface) Drop(ctx context.Context, payload DragPayload, client Point) (Widget, error) {
	if payload.Source != SourceChartLibrary {
		return Widget{}, ErrUnrecognizedSource
	}
	entry := payload.Entry
	if s.layout.HasChart(entry.ID) {
		s.notifier.Notify(ctx, s.userID, Notice{
			Level:   NoticeWarning,
			Message: fmt.Sprintf("%q is already on the dashboard", entry.Name),
			Code:    CodeDuplicateChart,
		})
		return Widget{}, fmt.Errorf("%w: %s", ErrDuplicateChart, entry.ID)
	}
	geometry := s.Geometry()
	local := Point{X: client.X - geometry.Offset.X, Y: client.Y - geometry.Offset.Y}
	size := s.catalog.DefaultSize(KindGraph)
	pos := ClampPosition(Position{X: local.X - size.Width/2, Y: local.Y - size.Height/2}, size, geometry.Bounds)
	chart := cloneChartEntry(entry)
	w := Widget{
		InstanceID: s.ids.NewID(),
		Kind:       KindGraph,
		Position:   pos,
		Size:       size,
		Style:      s.catalog.DefaultStyle(KindGraph),
		Chart:      &chart,
	}
	if err := s.layout.Add(w); err != nil {
		return Widget{}, err
	}
	return cloneWidget(w), nil
}

// AddTextBox places a text box at the next cascading slot.
func (s *Surface) AddTextBox(content string) (Widget, error) {
	return s.place(Widget{Kind: KindTextBox, Content: content, Style: s.catalog.DefaultStyle(KindTextBox)})
}

// AddLogo places an image widget at the next cascading slot.
func (s *Surface) AddLogo(src string) (Widget, error) {
	if !IsImageDataURI(src) {
		return Widget{}, ErrInvalidImage
	}
	return s.place(Widget{Kind: KindLogo, Src: src})
}

func (s *Surface) place(w Widget) (Widget, error) {
	s.mu.Lock()
	step := float64(cascadeStep * (s.cascade % 10))
	s.cascade++
	bounds := s.geometry.Bounds
	s.mu.Unlock()

	w.InstanceID = s.ids.NewID()
	w.Size = s.catalog.DefaultSize(w.Kind)
	w.Position = ClampPosition(Position{X: cascadeStep + step, Y: cascadeStep + step}, w.Size, bounds)
	if err := s.layout.Add(w); err != nil {
		return Widget{}, err
	}
	return cloneWidget(w), nil
}
