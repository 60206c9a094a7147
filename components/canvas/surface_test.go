package canvas

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSurface(notifier Notifier, ids IDGenerator) (*Surface, *Layout) {
	layout := NewLayout()
	geometry := SurfaceGeometry{Offset: Point{X: 50, Y: 50}, Bounds: Bounds{Width: 1200, Height: 800}}
	return NewSurface("u1", layout, DefaultCatalog(), ids, notifier, geometry), layout
}

func TestDropCentresWidgetOnPointer(t *testing.T) {
	surface, layout := newTestSurface(nil, &sequentialIDs{})

	w, err := surface.Drop(context.Background(), DragPayload{Source: SourceChartLibrary, Entry: revenueEntry()}, Point{X: 300, Y: 200})
	require.NoError(t, err)

	assert.Equal(t, KindGraph, w.Kind)
	assert.Equal(t, Position{X: 50, Y: 0}, w.Position)
	assert.Equal(t, Size{Width: 400, Height: 300}, w.Size)
	assert.Equal(t, "#ffffff", w.Style.BackgroundColor)
	assert.Equal(t, "c1", w.ChartID())
	assert.Equal(t, 1, layout.Len())
}

func TestDropRejectsDuplicateChart(t *testing.T) {
	notices := NewNoticeRecorder()
	surface, layout := newTestSurface(notices, &sequentialIDs{})
	payload := DragPayload{Source: SourceChartLibrary, Entry: revenueEntry()}

	_, err := surface.Drop(context.Background(), payload, Point{X: 300, Y: 200})
	require.NoError(t, err)
	_, err = surface.Drop(context.Background(), payload, Point{X: 700, Y: 500})
	require.ErrorIs(t, err, ErrDuplicateChart)

	assert.Equal(t, 1, layout.Len())
	last, ok := notices.Last("u1")
	require.True(t, ok)
	assert.Equal(t, NoticeWarning, last.Level)
	assert.Equal(t, CodeDuplicateChart, last.Code)
	assert.Contains(t, last.Message, "Q3 Revenue")
}

func TestDropIgnoresForeignSources(t *testing.T) {
	surface, layout := newTestSurface(nil, &sequentialIDs{})
	_, err := surface.Drop(context.Background(), DragPayload{Source: "desktop-file", Entry: revenueEntry()}, Point{X: 300, Y: 200})
	require.ErrorIs(t, err, ErrUnrecognizedSource)
	assert.Zero(t, layout.Len())
}

func TestDropsProduceUniqueInstanceIDs(t *testing.T) {
	surface, layout := newTestSurface(nil, NewULIDGenerator())
	for i := 0; i < 50; i++ {
		entry := lineEntry(fmt.Sprintf("c%d", i), fmt.Sprintf("Chart %d", i))
		_, err := surface.Drop(context.Background(), DragPayload{Source: SourceChartLibrary, Entry: entry}, Point{X: float64(i * 10), Y: float64(i * 5)})
		require.NoError(t, err)
	}
	seen := map[string]bool{}
	for _, w := range layout.Widgets() {
		assert.False(t, seen[w.InstanceID], "duplicate id %s", w.InstanceID)
		seen[w.InstanceID] = true
		assert.GreaterOrEqual(t, w.Position.X, 0.0)
		assert.LessOrEqual(t, w.Rect().Right(), 1200.0)
	}
	assert.Len(t, seen, 50)
}

func TestAddTextBoxAndLogoCascade(t *testing.T) {
	surface, layout := newTestSurface(nil, &sequentialIDs{})

	first, err := surface.AddTextBox("")
	require.NoError(t, err)
	second, err := surface.AddTextBox("hello")
	require.NoError(t, err)
	assert.Equal(t, Position{X: 24, Y: 24}, first.Position)
	assert.Equal(t, Position{X: 48, Y: 48}, second.Position)
	assert.Equal(t, "Inter", second.Style.FontFamily)

	_, err = surface.AddLogo("https://example.com/logo.png")
	require.ErrorIs(t, err, ErrInvalidImage)

	logo, err := surface.AddLogo(onePixelPNG)
	require.NoError(t, err)
	assert.Nil(t, logo.Style)
	assert.Equal(t, Size{Width: 150, Height: 150}, logo.Size)
	assert.Equal(t, 3, layout.Len())
}

func TestSetGeometryReclampsWidgets(t *testing.T) {
	surface, layout := newTestSurface(nil, &sequentialIDs{})
	w, err := surface.Drop(context.Background(), DragPayload{Source: SourceChartLibrary, Entry: revenueEntry()}, Point{X: 1100, Y: 700})
	require.NoError(t, err)
	assert.Equal(t, Position{X: 800, Y: 500}, w.Position)

	moved := surface.SetGeometry(SurfaceGeometry{Bounds: Bounds{Width: 900, Height: 600}})
	require.Len(t, moved, 1)

	stored, _ := layout.Find(w.InstanceID)
	assert.Equal(t, Position{X: 500, Y: 300}, stored.Position)
}

func TestSetGeometryShrinksWidgetsThatNoLongerFit(t *testing.T) {
	surface, layout := newTestSurface(nil, &sequentialIDs{})
	w, err := surface.Drop(context.Background(), DragPayload{Source: SourceChartLibrary, Entry: revenueEntry()}, Point{X: 1100, Y: 700})
	require.NoError(t, err)
	require.Equal(t, Size{Width: 400, Height: 300}, w.Size)

	moved := surface.SetGeometry(SurfaceGeometry{Bounds: Bounds{Width: 350, Height: 250}})
	require.Len(t, moved, 1)

	stored, _ := layout.Find(w.InstanceID)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 350, Height: 250}, stored.Rect())
}
