package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPosition(t *testing.T) {
	bounds := Bounds{Width: 1200, Height: 800}
	size := Size{Width: 400, Height: 300}

	tests := []struct {
		name string
		in   Position
		want Position
	}{
		{name: "inside", in: Position{X: 100, Y: 100}, want: Position{X: 100, Y: 100}},
		{name: "negative", in: Position{X: -10, Y: -5}, want: Position{X: 0, Y: 0}},
		{name: "past far edges", in: Position{X: 1000, Y: 900}, want: Position{X: 800, Y: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampPosition(tt.in, size, bounds))
		})
	}

	t.Run("oversized box pins to origin", func(t *testing.T) {
		got := ClampPosition(Position{X: 50, Y: 50}, Size{Width: 2000, Height: 300}, bounds)
		assert.Equal(t, Position{X: 0, Y: 50}, got)
	})

	t.Run("unbounded axis", func(t *testing.T) {
		got := ClampPosition(Position{X: 5000, Y: 5000}, size, Bounds{Width: 1200})
		assert.Equal(t, Position{X: 800, Y: 5000}, got)
	})
}

func TestDetectEdges(t *testing.T) {
	size := Size{Width: 400, Height: 300}

	assert.Equal(t, EdgeLeft|EdgeTop, DetectEdges(Point{X: 2, Y: 2}, size, 8))
	assert.Equal(t, "top-left", DetectEdges(Point{X: 2, Y: 2}, size, 8).String())
	assert.Equal(t, EdgeRight|EdgeBottom, DetectEdges(Point{X: 399, Y: 299}, size, 8))
	assert.Equal(t, EdgeRight, DetectEdges(Point{X: 395, Y: 150}, size, 8))
	assert.Equal(t, Edges(0), DetectEdges(Point{X: 200, Y: 150}, size, 8))
	assert.Equal(t, Edges(0), DetectEdges(Point{X: -1, Y: 150}, size, 8))
	assert.Equal(t, "none", Edges(0).String())
}

func TestResizeRectHonoursMinimum(t *testing.T) {
	start := Rect{X: 100, Y: 100, Width: 400, Height: 300}
	minSize := Size{Width: 300, Height: 200}
	bounds := Bounds{Width: 1200, Height: 800}

	got := ResizeRect(start, EdgeRight|EdgeBottom, -500, -500, minSize, bounds)
	assert.Equal(t, Rect{X: 100, Y: 100, Width: 300, Height: 200}, got)

	got = ResizeRect(start, EdgeLeft, 300, 0, minSize, bounds)
	assert.Equal(t, Rect{X: 200, Y: 100, Width: 300, Height: 300}, got)
}

func TestResizeRectStaysInsideBounds(t *testing.T) {
	bounds := Bounds{Width: 1200, Height: 800}
	minSize := Size{Width: 150, Height: 60}

	got := ResizeRect(Rect{X: 1000, Y: 0, Width: 150, Height: 60}, EdgeRight, 500, 0, minSize, bounds)
	assert.Equal(t, Rect{X: 1000, Y: 0, Width: 200, Height: 60}, got)

	got = ResizeRect(Rect{X: 100, Y: 100, Width: 400, Height: 300}, EdgeLeft|EdgeTop, -200, -300, minSize, bounds)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 500, Height: 400}, got)
}

func TestFitRectCapsToBounds(t *testing.T) {
	bounds := Bounds{Width: 1200, Height: 800}
	minSize := Size{Width: 150, Height: 60}

	got := FitRect(Rect{X: 0, Y: 0, Width: 5000, Height: 5000}, minSize, bounds)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 1200, Height: 800}, got)

	got = FitRect(Rect{X: 1000, Y: 700, Width: 500, Height: 500}, minSize, bounds)
	assert.Equal(t, Rect{X: 1000, Y: 700, Width: 200, Height: 100}, got)

	got = FitRect(Rect{X: 1150, Y: 790, Width: 500, Height: 500}, minSize, bounds)
	assert.Equal(t, Rect{X: 1050, Y: 740, Width: 150, Height: 60}, got)

	got = FitRect(Rect{X: 10, Y: 10, Width: 10, Height: 10}, minSize, bounds)
	assert.Equal(t, Rect{X: 10, Y: 10, Width: 150, Height: 60}, got)
}

func TestFitSizeKeepsMinimum(t *testing.T) {
	minSize := Size{Width: 300, Height: 200}

	assert.Equal(t, Size{Width: 400, Height: 300}, FitSize(Size{Width: 900, Height: 900}, minSize, Bounds{Width: 400, Height: 300}))
	assert.Equal(t, Size{Width: 300, Height: 200}, FitSize(Size{Width: 900, Height: 900}, minSize, Bounds{Width: 100, Height: 100}))
}
