package canvas

import (
	"context"
	"sync"
	"time"
)

// Session is the live canvas of one user: widget collection, library cache,
// drop surface, gesture handles and background selection.
type Session struct {
	ID        string
	UserID    string
	StartedAt time.Time

	layout      *Layout
	library     *Library
	surface     *Surface
	interaction InteractionAdapter

	// ready is closed once the saved layout and library are loaded.
	ready chan struct{}
	// lastSeen is guarded by the owning Service mutex.
	lastSeen time.Time

	mu         sync.RWMutex
	background Background
}

func (s *Session) wait(ctx context.Context) error {
	if s.ready == nil {
		return nil
	}
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Layout returns the session widget collection.
func (s *Session) Layout() *Layout { return s.layout }

// Library returns the session chart library.
func (s *Session) Library() *Library { return s.library }

// Surface returns the session drop surface.
func (s *Session) Surface() *Surface { return s.surface }

// Background returns the backdrop selection.
func (s *Session) Background() Background {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *Session) setBackground(bg Background) {
	s.mu.Lock()
	s.background = bg
	s.mu.Unlock()
}

// Snapshot is the serializable state of a session.
type Snapshot struct {
	SessionID  string          `json:"sessionId"`
	UserID     string          `json:"userId"`
	Widgets    []Widget        `json:"widgets"`
	Surface    SurfaceGeometry `json:"surface"`
	Background Background      `json:"background"`
	Library    LibrarySnapshot `json:"library"`
}

func (s *Session) snapshot() Snapshot {
	widgets := s.layout.Widgets()
	if widgets == nil {
		widgets = []Widget{}
	}
	return Snapshot{
		SessionID:  s.ID,
		UserID:     s.UserID,
		Widgets:    widgets,
		Surface:    s.surface.Geometry(),
		Background: s.Background(),
		Library:    s.library.Snapshot(),
	}
}
