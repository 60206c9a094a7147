package canvas

import (
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session stays in memory.
const DefaultSessionTTL = 30 * time.Minute

const sessionSweepInterval = time.Minute

// DefaultSurface is the surface geometry used until the client reports its own.
var DefaultSurface = SurfaceGeometry{Bounds: Bounds{Width: 1200, Height: 800}}

// Options configures the canvas Service. Every collaborator is an interface
// so hosts can swap implementations.
type Options struct {
	ChartSource ChartSource
	Store       LayoutStore
	Notifier    Notifier
	Hook        EventHook
	Telemetry   Telemetry
	Catalog     *Catalog
	IDs         IDGenerator
	Renderer    Renderer
	Rasterizer  Rasterizer
	Content     *RendererRegistry
	Interaction InteractionFactory
	Surface     SurfaceGeometry
	// SkipInitialRefresh leaves the library unloaded at session start.
	SkipInitialRefresh bool
	// SessionTTL ends sessions left idle for longer. Negative keeps them
	// until EndSession.
	SessionTTL time.Duration
	// Now overrides the clock used for session expiry.
	Now func() time.Time
}

// Service owns one canvas session per user and exposes every canvas operation.
type Service struct {
	opts      Options
	styles    *StyleValidator
	frames    *FrameRenderer
	persister *Persister

	exportOnce sync.Once
	exporter   *Exporter
	exportErr  error

	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.IDs == nil {
		opts.IDs = NewULIDGenerator()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Content == nil {
		opts.Content = NewRendererRegistry(nil)
	}
	if opts.Interaction == nil {
		opts.Interaction = NewPointerInteractor
	}
	if opts.Surface == (SurfaceGeometry{}) {
		opts.Surface = DefaultSurface
	}
	opts.Notifier = normalizeNotifier(opts.Notifier)
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Hook == nil {
		opts.Hook = MultiHook(nil)
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		opts:      opts,
		styles:    NewStyleValidator(opts.Catalog),
		frames:    NewFrameRenderer(opts.Catalog, opts.Content, opts.Telemetry),
		persister: NewPersister(opts.Store, opts.Notifier, opts.Telemetry),
		sessions:  make(map[string]*Session),
	}
}

func (s *Service) now() time.Time { return s.opts.Now() }

// Catalog returns the widget kind catalog in use.
func (s *Service) Catalog() *Catalog { return s.opts.Catalog }

// StartSessionRequest opens a canvas for a user.
type StartSessionRequest struct {
	UserID  string
	Surface *SurfaceGeometry
}

// StartSession loads the saved layout and the chart library for the user.
// Starting an already open session returns its current state.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (Snapshot, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return Snapshot{}, err
	}
	if req.Surface != nil {
		session.surface.SetGeometry(*req.Surface)
	}
	return session.snapshot(), nil
}

// EndSession discards the in-memory session. Unsaved changes are lost.
// Ending a session that was never started returns ErrNoSession.
func (s *Service) EndSession(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, userID)
	}
	for _, w := range session.layout.Widgets() {
		session.interaction.Detach(w.InstanceID)
	}
	s.opts.Telemetry.Record(ctx, "canvas.session.ended", map[string]any{
		"user_id":    userID,
		"session_id": session.ID,
	})
	return nil
}

// Snapshot returns the session state, starting the session when needed.
func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return session.snapshot(), nil
}

func (s *Service) session(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	now := s.now()
	expired := s.sweep(now)
	s.mu.Lock()
	if session, ok := s.sessions[userID]; ok {
		session.lastSeen = now
		s.mu.Unlock()
		s.detach(ctx, expired)
		return session, session.wait(ctx)
	}
	layout := NewLayout()
	session := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		StartedAt:  now.UTC(),
		layout:     layout,
		library:    NewLibrary(userID, s.opts.ChartSource, s.opts.Notifier, s.opts.Telemetry),
		surface:    NewSurface(userID, layout, s.opts.Catalog, s.opts.IDs, s.opts.Notifier, s.opts.Surface),
		background: Background{Kind: BackgroundPreset, Preset: DefaultBackground},
		ready:      make(chan struct{}),
		lastSeen:   now,
	}
	session.interaction = s.opts.Interaction(layout, session.surface.Bounds)
	s.sessions[userID] = session
	s.mu.Unlock()
	s.detach(ctx, expired)

	// Callers for the same user block on ready until the saved layout is in.
	defer close(session.ready)
	if widgets := s.persister.Load(ctx, userID); len(widgets) > 0 {
		if err := layout.Replace(widgets); err != nil {
			s.opts.Telemetry.Record(ctx, "canvas.layout.load_error", map[string]any{"user_id": userID, "error": err.Error()})
		}
	}
	if !s.opts.SkipInitialRefresh {
		// Fetch failures are surfaced through the library state and notices.
		_ = session.library.Refresh(ctx)
	}
	s.opts.Telemetry.Record(ctx, "canvas.session.started", map[string]any{
		"user_id":    userID,
		"session_id": session.ID,
		"widgets":    layout.Len(),
	})
	return session, nil
}

// EvictIdle ends every session unused for longer than the session TTL and
// returns how many were dropped.
func (s *Service) EvictIdle(ctx context.Context) int {
	s.mu.Lock()
	s.lastSweep = time.Time{}
	s.mu.Unlock()
	expired := s.sweep(s.now())
	s.detach(ctx, expired)
	return len(expired)
}

// sweep removes idle sessions, at most once per sweep interval.
func (s *Service) sweep(now time.Time) []*Session {
	if s.opts.SessionTTL <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < sessionSweepInterval {
		return nil
	}
	s.lastSweep = now
	var expired []*Session
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) > s.opts.SessionTTL {
			delete(s.sessions, id)
			expired = append(expired, session)
		}
	}
	return expired
}

func (s *Service) detach(ctx context.Context, sessions []*Session) {
	for _, session := range sessions {
		for _, w := range session.layout.Widgets() {
			session.interaction.Detach(w.InstanceID)
		}
		s.opts.Telemetry.Record(ctx, "canvas.session.expired", map[string]any{
			"user_id":    session.UserID,
			"session_id": session.ID,
		})
	}
}

// DropRequest is a chart library entry released over the surface at a page point.
type DropRequest struct {
	UserID  string
	ChartID string
	Source  string
	ClientX float64
	ClientY float64
}

// Drop creates a graph widget for a library entry.
func (s *Service) Drop(ctx context.Context, req DropRequest) (Widget, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return Widget{}, err
	}
	payload, ok := session.library.Entry(req.ChartID)
	if !ok {
		return Widget{}, fmt.Errorf("%w: %s", ErrUnknownChart, req.ChartID)
	}
	if req.Source != "" {
		payload.Source = req.Source
	}
	w, err := session.surface.Drop(ctx, payload, Point{X: req.ClientX, Y: req.ClientY})
	if err != nil {
		return Widget{}, err
	}
	s.emit(ctx, session, w, "drop")
	return w, nil
}

// AddTextBoxRequest adds a text box.
type AddTextBoxRequest struct {
	UserID  string
	Content string
}

// AddTextBox places a new text box widget.
func (s *Service) AddTextBox(ctx context.Context, req AddTextBoxRequest) (Widget, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return Widget{}, err
	}
	w, err := session.surface.AddTextBox(req.Content)
	if err != nil {
		return Widget{}, err
	}
	s.emit(ctx, session, w, "add")
	return w, nil
}

// AddLogoRequest adds an image widget from an uploaded data URI.
type AddLogoRequest struct {
	UserID string
	Src    string
}

// AddLogo places a new logo widget.
func (s *Service) AddLogo(ctx context.Context, req AddLogoRequest) (Widget, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return Widget{}, err
	}
	w, err := session.surface.AddLogo(req.Src)
	if err != nil {
		s.opts.Notifier.Notify(ctx, req.UserID, Notice{Level: NoticeError, Message: "Choose an image file", Code: CodeInvalidImage})
		return Widget{}, err
	}
	s.emit(ctx, session, w, "add")
	return w, nil
}

// UpdateWidgetRequest applies a partial change to one widget.
type UpdateWidgetRequest struct {
	UserID     string
	InstanceID string
	Patch      WidgetPatch
}

// UpdateWidget validates and merges a patch. Boxes are kept inside the
// surface and above the kind minimum.
func (s *Service) UpdateWidget(ctx context.Context, req UpdateWidgetRequest) (Widget, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return Widget{}, err
	}
	current, ok := session.layout.Find(req.InstanceID)
	if !ok {
		return Widget{}, ErrWidgetNotFound
	}
	patch := req.Patch
	if patch.Style != nil {
		if err := s.styles.Validate(current.Kind, *patch.Style); err != nil {
			return Widget{}, err
		}
	}
	if patch.Src != nil && !IsImageDataURI(*patch.Src) {
		return Widget{}, ErrInvalidImage
	}
	if patch.Size != nil || patch.Position != nil {
		bounds := session.surface.Bounds()
		minSize := s.opts.Catalog.MinSize(current.Kind)
		pos := current.Position
		if patch.Position != nil {
			pos = *patch.Position
		}
		size := FitSize(current.Size, minSize, bounds)
		if patch.Size != nil {
			r := FitRect(Rect{X: pos.X, Y: pos.Y, Width: patch.Size.Width, Height: patch.Size.Height}, minSize, bounds)
			size = Size{Width: r.Width, Height: r.Height}
		}
		pos = ClampPosition(pos, size, bounds)
		patch.Size = &size
		patch.Position = &pos
	}
	w, ok := session.layout.Update(req.InstanceID, patch)
	if !ok {
		return Widget{}, ErrWidgetNotFound
	}
	s.emit(ctx, session, w, "update")
	return w, nil
}

// GestureRequest replays a pointer gesture: a widget-local grab point and the
// total pointer delta.
type GestureRequest struct {
	UserID     string
	InstanceID string
	Grab       Point
	DX         float64
	DY         float64
}

// MoveWidget drags a widget by its header and commits the contained position.
func (s *Service) MoveWidget(ctx context.Context, req GestureRequest) (Widget, error) {
	session, handle, err := s.handle(ctx, req.UserID, req.InstanceID)
	if err != nil {
		return Widget{}, err
	}
	if _, err := handle.BeginDrag(req.Grab); err != nil {
		return Widget{}, err
	}
	if _, err := handle.DragMove(req.DX, req.DY); err != nil {
		return Widget{}, err
	}
	w, err := handle.EndDrag()
	if err != nil {
		return Widget{}, err
	}
	s.emit(ctx, session, w, "move")
	return w, nil
}

// ResizeWidget resizes a widget from the edge under the grab point.
func (s *Service) ResizeWidget(ctx context.Context, req GestureRequest) (Widget, error) {
	session, handle, err := s.handle(ctx, req.UserID, req.InstanceID)
	if err != nil {
		return Widget{}, err
	}
	if _, err := handle.BeginResize(req.Grab); err != nil {
		return Widget{}, err
	}
	if _, err := handle.ResizeMove(req.DX, req.DY); err != nil {
		return Widget{}, err
	}
	w, err := handle.EndResize()
	if err != nil {
		return Widget{}, err
	}
	s.emit(ctx, session, w, "resize")
	return w, nil
}

// EditTextBoxRequest replaces text box content as a completed edit.
type EditTextBoxRequest struct {
	UserID     string
	InstanceID string
	Content    string
}

// EditTextBox enters and commits an edit on a text box.
func (s *Service) EditTextBox(ctx context.Context, req EditTextBoxRequest) (Widget, error) {
	session, handle, err := s.handle(ctx, req.UserID, req.InstanceID)
	if err != nil {
		return Widget{}, err
	}
	if _, err := handle.BeginEdit(); err != nil {
		return Widget{}, err
	}
	w, err := handle.CommitEdit(req.Content)
	if err != nil {
		return Widget{}, err
	}
	s.emit(ctx, session, w, "edit")
	return w, nil
}

func (s *Service) handle(ctx context.Context, userID, instanceID string) (*Session, *Handle, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	w, ok := session.layout.Find(instanceID)
	if !ok {
		return nil, nil, ErrWidgetNotFound
	}
	handle, err := session.interaction.Attach(instanceID, AttachConfig{
		MinSize:      s.opts.Catalog.MinSize(w.Kind),
		HeaderHeight: s.opts.Catalog.HeaderHeight,
		EdgeMargin:   s.opts.Catalog.EdgeMargin,
	})
	if err != nil {
		return nil, nil, err
	}
	return session, handle, nil
}

// RemoveWidgetRequest deletes a widget.
type RemoveWidgetRequest struct {
	UserID     string
	InstanceID string
}

// RemoveWidget deletes a widget. Removing an absent widget is a no-op.
func (s *Service) RemoveWidget(ctx context.Context, req RemoveWidgetRequest) error {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return err
	}
	w, ok := session.layout.Find(req.InstanceID)
	if !ok {
		return nil
	}
	session.interaction.Detach(req.InstanceID)
	if session.layout.Remove(req.InstanceID) {
		s.emit(ctx, session, w, "delete")
	}
	return nil
}

// SaveLayout persists the current widgets.
func (s *Service) SaveLayout(ctx context.Context, userID string) error {
	session, err := s.session(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.persister.Save(ctx, userID, session.layout.Widgets()); err != nil {
		return err
	}
	s.emitReason(ctx, session, "save")
	return nil
}

// ClearLayoutRequest clears the canvas once the user confirmed.
type ClearLayoutRequest struct {
	UserID    string
	Confirmer Confirmer
}

// ClearLayout empties the canvas and removes the saved layout.
func (s *Service) ClearLayout(ctx context.Context, req ClearLayoutRequest) error {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return err
	}
	widgets := session.layout.Widgets()
	if err := s.persister.Clear(ctx, req.UserID, session.layout, req.Confirmer); err != nil {
		return err
	}
	for _, w := range widgets {
		session.interaction.Detach(w.InstanceID)
	}
	s.emitReason(ctx, session, "clear")
	return nil
}

// RefreshLibrary re-fetches the user's charts.
func (s *Service) RefreshLibrary(ctx context.Context, userID string) (LibrarySnapshot, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return LibrarySnapshot{}, err
	}
	err = session.library.Refresh(ctx)
	return session.library.Snapshot(), err
}

// Library returns the cached chart library.
func (s *Service) Library(ctx context.Context, userID string) (LibrarySnapshot, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return LibrarySnapshot{}, err
	}
	return session.library.Snapshot(), nil
}

// SetBackgroundRequest selects a preset or an uploaded image.
type SetBackgroundRequest struct {
	UserID string
	Preset string
	Image  string
}

// SetBackground changes the session backdrop.
func (s *Service) SetBackground(ctx context.Context, req SetBackgroundRequest) (Background, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return Background{}, err
	}
	var bg Background
	if req.Image != "" {
		bg, err = ImageBackground(req.Image)
	} else {
		bg, err = PresetBackground(req.Preset)
	}
	if err != nil {
		return Background{}, err
	}
	session.setBackground(bg)
	s.emitReason(ctx, session, "background")
	return bg, nil
}

// SetSurfaceRequest reports the surface placement measured by the client.
type SetSurfaceRequest struct {
	UserID   string
	Geometry SurfaceGeometry
}

// SetSurface updates the containment bounds and returns the widgets it moved.
func (s *Service) SetSurface(ctx context.Context, req SetSurfaceRequest) ([]Widget, error) {
	session, err := s.session(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	moved := session.surface.SetGeometry(req.Geometry)
	for _, w := range moved {
		s.emit(ctx, session, w, "contain")
	}
	return moved, nil
}

// StyleMenu returns the style menu of kind.
func (s *Service) StyleMenu(kind WidgetKind) (StyleMenu, bool) {
	return StyleMenuFor(s.opts.Catalog, kind)
}

// RenderCanvas renders the surface markup with every widget frame.
func (s *Service) RenderCanvas(ctx context.Context, userID string) (template.HTML, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return "", err
	}
	widgets := session.layout.Widgets()
	bounds := session.surface.Bounds()
	return s.frames.RenderSurface(ctx, SurfaceView{
		Widgets:    widgets,
		Bounds:     bounds,
		Height:     ContentHeight(bounds, widgets),
		Background: session.Background(),
	})
}

// ExportDocument produces dashboard.html.
func (s *Service) ExportDocument(ctx context.Context, userID string) (*Artifact, error) {
	exporter, input, err := s.exportInput(ctx, userID)
	if err != nil {
		return nil, err
	}
	return exporter.Document(ctx, input)
}

// ExportImage produces dashboard.png.
func (s *Service) ExportImage(ctx context.Context, userID string) (*Artifact, error) {
	exporter, input, err := s.exportInput(ctx, userID)
	if err != nil {
		return nil, err
	}
	return exporter.Image(ctx, input)
}

func (s *Service) exportInput(ctx context.Context, userID string) (*Exporter, ExportInput, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return nil, ExportInput{}, err
	}
	exporter, err := s.exporterInstance()
	if err != nil {
		s.opts.Notifier.Notify(ctx, userID, Notice{Level: NoticeError, Message: "Export failed: " + err.Error(), Code: CodeExportFailed})
		return nil, ExportInput{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return exporter, ExportInput{
		UserID:     userID,
		Widgets:    session.layout.Widgets(),
		Bounds:     session.surface.Bounds(),
		Background: session.Background(),
	}, nil
}

func (s *Service) exporterInstance() (*Exporter, error) {
	s.exportOnce.Do(func() {
		s.exporter, s.exportErr = NewExporter(ExporterOptions{
			Renderer:   s.opts.Renderer,
			Frames:     s.frames,
			Rasterizer: s.opts.Rasterizer,
			Catalog:    s.opts.Catalog,
			Notifier:   s.opts.Notifier,
			Telemetry:  s.opts.Telemetry,
		})
	})
	return s.exporter, s.exportErr
}

func (s *Service) emit(ctx context.Context, session *Session, w Widget, reason string) {
	s.publish(ctx, Event{
		UserID:     session.UserID,
		SessionID:  session.ID,
		InstanceID: w.InstanceID,
		Kind:       w.Kind,
		Reason:     reason,
		At:         time.Now().UTC(),
	})
}

func (s *Service) emitReason(ctx context.Context, session *Session, reason string) {
	s.publish(ctx, Event{UserID: session.UserID, SessionID: session.ID, Reason: reason, At: time.Now().UTC()})
}

// publish forwards event to the hook. Hook failures never undo the change.
func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.opts.Hook.CanvasUpdated(ctx, event); err != nil {
		s.opts.Telemetry.Record(ctx, "canvas.hook_error", map[string]any{
			"user_id": event.UserID,
			"reason":  event.Reason,
			"error":   err.Error(),
		})
		return
	}
	s.opts.Telemetry.Record(ctx, "canvas.widget."+event.Reason, map[string]any{
		"user_id":     event.UserID,
		"instance_id": event.InstanceID,
	})
}
