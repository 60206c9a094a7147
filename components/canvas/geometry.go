package canvas

import "math"

// Edges is a bit set naming the widget edges a resize gesture grabbed.
type Edges uint8

const (
	EdgeLeft Edges = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Has reports whether e includes edge.
func (e Edges) Has(edge Edges) bool { return e&edge != 0 }

// String renders the edges in the "top-left" style used by cursors.
func (e Edges) String() string {
	var v, h string
	switch {
	case e.Has(EdgeTop):
		v = "top"
	case e.Has(EdgeBottom):
		v = "bottom"
	}
	switch {
	case e.Has(EdgeLeft):
		h = "left"
	case e.Has(EdgeRight):
		h = "right"
	}
	switch {
	case v != "" && h != "":
		return v + "-" + h
	case v != "":
		return v
	case h != "":
		return h
	}
	return "none"
}

// ClampPosition keeps a box of the given size fully inside bounds. When the
// box is larger than the bounds it is pinned to the origin on that axis.
func ClampPosition(pos Position, size Size, bounds Bounds) Position {
	return Position{
		X: clampAxis(pos.X, size.Width, bounds.Width),
		Y: clampAxis(pos.Y, size.Height, bounds.Height),
	}
}

func clampAxis(v, extent, limit float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if limit > 0 && v+extent > limit {
		v = limit - extent
	}
	if v < 0 {
		v = 0
	}
	return v
}

// DetectEdges returns the edges within margin of a widget-local point. A point
// outside the widget box grabs nothing.
func DetectEdges(local Point, size Size, margin float64) Edges {
	if local.X < 0 || local.Y < 0 || local.X > size.Width || local.Y > size.Height {
		return 0
	}
	var e Edges
	if local.X <= margin {
		e |= EdgeLeft
	} else if local.X >= size.Width-margin {
		e |= EdgeRight
	}
	if local.Y <= margin {
		e |= EdgeTop
	} else if local.Y >= size.Height-margin {
		e |= EdgeBottom
	}
	return e
}

// ResizeRect applies a pointer delta to the grabbed edges of start. The
// result honours the minimum size and stays inside bounds; the minimum wins
// when both cannot be met.
func ResizeRect(start Rect, edges Edges, dx, dy float64, minSize Size, bounds Bounds) Rect {
	x, w := resizeAxis(start.X, start.Width, dx, edges.Has(EdgeLeft), edges.Has(EdgeRight), minSize.Width, bounds.Width)
	y, h := resizeAxis(start.Y, start.Height, dy, edges.Has(EdgeTop), edges.Has(EdgeBottom), minSize.Height, bounds.Height)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func resizeAxis(origin, extent, delta float64, leading, trailing bool, minExtent, limit float64) (float64, float64) {
	if minExtent <= 0 {
		minExtent = 1
	}
	switch {
	case trailing:
		extent += delta
		if limit > 0 && origin+extent > limit {
			extent = limit - origin
		}
	case leading:
		far := origin + extent
		origin += delta
		if origin < 0 {
			origin = 0
		}
		extent = far - origin
		if extent < minExtent {
			origin = far - minExtent
		}
	}
	if extent < minExtent {
		extent = minExtent
	}
	if origin < 0 {
		origin = 0
	}
	return origin, extent
}

// FitRect shrinks r so it fits inside bounds without going below minSize,
// keeping its origin where possible. The minimum wins when both cannot be met.
func FitRect(r Rect, minSize Size, bounds Bounds) Rect {
	x, w := fitAxis(r.X, r.Width, minSize.Width, bounds.Width)
	y, h := fitAxis(r.Y, r.Height, minSize.Height, bounds.Height)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// FitSize caps size to bounds without going below minSize.
func FitSize(size Size, minSize Size, bounds Bounds) Size {
	_, w := fitAxis(0, size.Width, minSize.Width, bounds.Width)
	_, h := fitAxis(0, size.Height, minSize.Height, bounds.Height)
	return Size{Width: w, Height: h}
}

func fitAxis(origin, extent, minExtent, limit float64) (float64, float64) {
	if minExtent <= 0 {
		minExtent = 1
	}
	if math.IsNaN(extent) || extent < minExtent {
		extent = minExtent
	}
	if math.IsNaN(origin) || math.IsInf(origin, 0) || origin < 0 {
		origin = 0
	}
	if limit > 0 && origin+extent > limit {
		extent = math.Max(limit-origin, minExtent)
	}
	return clampAxis(origin, extent, limit), extent
}
