package canvas

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateInstance is returned when a widget reuses an existing instance id.
	ErrDuplicateInstance = errors.New("canvas: widget instance id already present")
	errMissingInstanceID = errors.New("canvas: widget instance id is required")
	errInvalidKind       = errors.New("canvas: widget kind is invalid")
)

// Layout is the ordered, in-memory widget collection of a session. It performs
// no I/O; renderers and gesture handles mutate it only through Update and Remove.
type Layout struct {
	mu      sync.RWMutex
	widgets []Widget
}

// NewLayout builds an empty layout.
func NewLayout() *Layout {
	return &Layout{}
}

// Add appends a fully formed widget.
func (l *Layout) Add(w Widget) error {
	if err := checkWidget(w); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexLocked(w.InstanceID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateInstance, w.InstanceID)
	}
	l.widgets = append(l.widgets, cloneWidget(w))
	return nil
}

// Update merges patch into the widget with instanceID. It is a no-op, returning
// false, when the widget is absent.
func (l *Layout) Update(instanceID string, patch WidgetPatch) (Widget, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(instanceID)
	if idx < 0 {
		return Widget{}, false
	}
	applyPatch(&l.widgets[idx], patch)
	return cloneWidget(l.widgets[idx]), true
}

// Remove deletes the widget with instanceID. It is a no-op when absent.
func (l *Layout) Remove(instanceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(instanceID)
	if idx < 0 {
		return false
	}
	l.widgets = append(l.widgets[:idx], l.widgets[idx+1:]...)
	return true
}

// Find returns a copy of the widget with instanceID.
func (l *Layout) Find(instanceID string) (Widget, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexLocked(instanceID)
	if idx < 0 {
		return Widget{}, false
	}
	return cloneWidget(l.widgets[idx]), true
}

// HasChart reports whether a graph widget already references chartID.
func (l *Layout) HasChart(chartID string) bool {
	if chartID == "" {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, w := range l.widgets {
		if w.ChartID() == chartID {
			return true
		}
	}
	return false
}

// Widgets returns a snapshot of the collection in insertion order.
func (l *Layout) Widgets() []Widget {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneWidgets(l.widgets)
}

// Len returns the number of widgets.
func (l *Layout) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.widgets)
}

// Replace swaps the whole collection, used when restoring a saved layout.
func (l *Layout) Replace(widgets []Widget) error {
	seen := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		if err := checkWidget(w); err != nil {
			return err
		}
		if _, dup := seen[w.InstanceID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateInstance, w.InstanceID)
		}
		seen[w.InstanceID] = struct{}{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.widgets = cloneWidgets(widgets)
	return nil
}

// Reset empties the collection.
func (l *Layout) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.widgets = nil
}

func (l *Layout) indexLocked(instanceID string) int {
	for i := range l.widgets {
		if l.widgets[i].InstanceID == instanceID {
			return i
		}
	}
	return -1
}

func checkWidget(w Widget) error {
	if w.InstanceID == "" {
		return errMissingInstanceID
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("%w: %q", errInvalidKind, w.Kind)
	}
	return nil
}
