package canvas

import (
	"errors"
	"sync"
)

var (
	// ErrOutsideHandle is returned when a drag starts outside the header handle region.
	ErrOutsideHandle = errors.New("canvas: drag must start on the widget handle")
	// ErrNotOnEdge is returned when a resize starts away from the widget edges.
	ErrNotOnEdge = errors.New("canvas: resize must start on a widget edge")
	// ErrGestureActive is returned when a gesture starts while another is in progress.
	ErrGestureActive = errors.New("canvas: another gesture is in progress")
	// ErrNoGesture is returned when moving or ending a gesture that never began.
	ErrNoGesture = errors.New("canvas: no gesture in progress")
	// ErrHandleDetached is returned by handles used after Detach.
	ErrHandleDetached = errors.New("canvas: interaction handle is detached")
	// ErrNotEditable is returned when editing a widget that has no text content.
	ErrNotEditable = errors.New("canvas: widget is not editable")
)

// GestureState is the interaction state of a single widget.
type GestureState string

const (
	StateIdle     GestureState = "idle"
	StateDragging GestureState = "dragging"
	StateResizing GestureState = "resizing"
	StateEditing  GestureState = "editing"
)

// WidgetCommitter is the slice of the widget collection the adapter needs:
// read the committed box and write the final one at gesture end.
type WidgetCommitter interface {
	Find(instanceID string) (Widget, bool)
	Update(instanceID string, patch WidgetPatch) (Widget, bool)
}

// BoundsFunc reports the current containment bounds.
type BoundsFunc func() Bounds

// AttachConfig tunes the gesture regions of a widget.
type AttachConfig struct {
	MinSize      Size
	HeaderHeight float64
	EdgeMargin   float64
}

// InteractionAdapter attaches drag/resize behavior to widgets.
type InteractionAdapter interface {
	Attach(instanceID string, cfg AttachConfig) (*Handle, error)
	Lookup(instanceID string) (*Handle, bool)
	Detach(instanceID string)
}

// InteractionFactory builds an adapter bound to a session's widgets and bounds.
type InteractionFactory func(widgets WidgetCommitter, bounds BoundsFunc) InteractionAdapter

// PointerInteractor is the default adapter. Handles live until detached and
// are keyed by widget identity only.
type PointerInteractor struct {
	widgets WidgetCommitter
	bounds  BoundsFunc

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewPointerInteractor builds the default interaction adapter.
func NewPointerInteractor(widgets WidgetCommitter, bounds BoundsFunc) InteractionAdapter {
	if bounds == nil {
		bounds = func() Bounds { return Bounds{} }
	}
	return &PointerInteractor{
		widgets: widgets,
		bounds:  bounds,
		handles: make(map[string]*Handle),
	}
}

var _ InteractionAdapter = (*PointerInteractor)(nil)

// Attach returns the live handle for instanceID, creating one when none is attached.
func (p *PointerInteractor) Attach(instanceID string, cfg AttachConfig) (*Handle, error) {
	if _, ok := p.widgets.Find(instanceID); !ok {
		return nil, ErrWidgetNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.handles[instanceID]; ok {
		return h, nil
	}
	if cfg.HeaderHeight <= 0 {
		cfg.HeaderHeight = defaultHeaderHeight
	}
	if cfg.EdgeMargin <= 0 {
		cfg.EdgeMargin = defaultEdgeMargin
	}
	h := &Handle{
		instanceID: instanceID,
		cfg:        cfg,
		owner:      p,
		state:      StateIdle,
	}
	p.handles[instanceID] = h
	return h, nil
}

// Lookup returns the attached handle, if any.
func (p *PointerInteractor) Lookup(instanceID string) (*Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[instanceID]
	return h, ok
}

// Detach releases the handle for instanceID. Detaching twice is a no-op.
func (p *PointerInteractor) Detach(instanceID string) {
	p.mu.Lock()
	h, ok := p.handles[instanceID]
	delete(p.handles, instanceID)
	p.mu.Unlock()
	if ok {
		h.markDetached()
	}
}

// DragSession is the uncommitted state of a drag. The committed widget is
// untouched until the session ends.
type DragSession struct {
	InstanceID string
	Start      Position
	Size       Size
	Offset     Point
	Bounds     Bounds
}

// Move accumulates a pointer delta.
func (s DragSession) Move(dx, dy float64) DragSession {
	s.Offset.X += dx
	s.Offset.Y += dy
	return s
}

// Preview returns the contained position the widget would commit now.
func (s DragSession) Preview() Position {
	return ClampPosition(Position{X: s.Start.X + s.Offset.X, Y: s.Start.Y + s.Offset.Y}, s.Size, s.Bounds)
}

// ResizeSession is the uncommitted state of a resize.
type ResizeSession struct {
	InstanceID string
	Start      Rect
	Edges      Edges
	Delta      Point
	MinSize    Size
	Bounds     Bounds
}

// Move accumulates a pointer delta.
func (s ResizeSession) Move(dx, dy float64) ResizeSession {
	s.Delta.X += dx
	s.Delta.Y += dy
	return s
}

// Preview returns the constrained box the widget would commit now.
func (s ResizeSession) Preview() Rect {
	return ResizeRect(s.Start, s.Edges, s.Delta.X, s.Delta.Y, s.MinSize, s.Bounds)
}

// Handle drives gestures for one attached widget. Intermediate frames live in
// the session value objects; only End* calls write to the widget collection.
type Handle struct {
	instanceID string
	cfg        AttachConfig
	owner      *PointerInteractor

	mu       sync.Mutex
	state    GestureState
	drag     DragSession
	resize   ResizeSession
	detached bool
}

// InstanceID returns the widget the handle is attached to.
func (h *Handle) InstanceID() string { return h.instanceID }

// State returns the current gesture state.
func (h *Handle) State() GestureState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Detach releases the handle from its adapter.
func (h *Handle) Detach() {
	h.owner.Detach(h.instanceID)
}

func (h *Handle) markDetached() {
	h.mu.Lock()
	h.detached = true
	h.state = StateIdle
	h.mu.Unlock()
}

// BeginDrag starts a drag from a widget-local grab point inside the header strip.
func (h *Handle) BeginDrag(grab Point) (DragSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.beginLocked()
	if err != nil {
		return DragSession{}, err
	}
	if grab.X < 0 || grab.X > w.Size.Width || grab.Y < 0 || grab.Y > h.cfg.HeaderHeight {
		return DragSession{}, ErrOutsideHandle
	}
	h.drag = DragSession{
		InstanceID: h.instanceID,
		Start:      w.Position,
		Size:       w.Size,
		Bounds:     h.owner.bounds(),
	}
	h.state = StateDragging
	return h.drag, nil
}

// DragMove applies a pointer delta and returns the preview position.
func (h *Handle) DragMove(dx, dy float64) (Position, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		return Position{}, ErrHandleDetached
	}
	if h.state != StateDragging {
		return Position{}, ErrNoGesture
	}
	h.drag = h.drag.Move(dx, dy)
	return h.drag.Preview(), nil
}

// EndDrag commits the last preview position.
func (h *Handle) EndDrag() (Widget, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		return Widget{}, ErrHandleDetached
	}
	if h.state != StateDragging {
		return Widget{}, ErrNoGesture
	}
	h.state = StateIdle
	pos := h.drag.Preview()
	w, ok := h.owner.widgets.Update(h.instanceID, WidgetPatch{Position: &pos})
	if !ok {
		return Widget{}, ErrWidgetNotFound
	}
	return w, nil
}

// BeginResize starts a resize from a widget-local grab point near an edge or corner.
func (h *Handle) BeginResize(grab Point) (ResizeSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.beginLocked()
	if err != nil {
		return ResizeSession{}, err
	}
	edges := DetectEdges(grab, w.Size, h.cfg.EdgeMargin)
	if edges == 0 {
		return ResizeSession{}, ErrNotOnEdge
	}
	h.resize = ResizeSession{
		InstanceID: h.instanceID,
		Start:      w.Rect(),
		Edges:      edges,
		MinSize:    h.cfg.MinSize,
		Bounds:     h.owner.bounds(),
	}
	h.state = StateResizing
	return h.resize, nil
}

// ResizeMove applies a pointer delta and returns the preview box.
func (h *Handle) ResizeMove(dx, dy float64) (Rect, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		return Rect{}, ErrHandleDetached
	}
	if h.state != StateResizing {
		return Rect{}, ErrNoGesture
	}
	h.resize = h.resize.Move(dx, dy)
	return h.resize.Preview(), nil
}

// EndResize commits the last preview box.
func (h *Handle) EndResize() (Widget, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		return Widget{}, ErrHandleDetached
	}
	if h.state != StateResizing {
		return Widget{}, ErrNoGesture
	}
	h.state = StateIdle
	box := h.resize.Preview()
	pos := Position{X: box.X, Y: box.Y}
	size := Size{Width: box.Width, Height: box.Height}
	w, ok := h.owner.widgets.Update(h.instanceID, WidgetPatch{Position: &pos, Size: &size})
	if !ok {
		return Widget{}, ErrWidgetNotFound
	}
	return w, nil
}

// BeginEdit enters text editing and returns the plain content to seed the editor.
func (h *Handle) BeginEdit() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.beginLocked()
	if err != nil {
		return "", err
	}
	if w.Kind != KindTextBox {
		return "", ErrNotEditable
	}
	h.state = StateEditing
	return w.Content, nil
}

// CommitEdit leaves editing and writes content back.
func (h *Handle) CommitEdit(content string) (Widget, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		return Widget{}, ErrHandleDetached
	}
	if h.state != StateEditing {
		return Widget{}, ErrNoGesture
	}
	h.state = StateIdle
	w, ok := h.owner.widgets.Update(h.instanceID, WidgetPatch{Content: &content})
	if !ok {
		return Widget{}, ErrWidgetNotFound
	}
	return w, nil
}

func (h *Handle) beginLocked() (Widget, error) {
	if h.detached {
		return Widget{}, ErrHandleDetached
	}
	if h.state != StateIdle {
		return Widget{}, ErrGestureActive
	}
	w, ok := h.owner.widgets.Find(h.instanceID)
	if !ok {
		return Widget{}, ErrWidgetNotFound
	}
	return w, nil
}
