package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/commands"
	"github.com/goliatone/go-canvas/components/canvas/queries"
)

var (
	errBadRequest   = errors.New("httpapi: malformed request body")
	errUnauthorized = errors.New("httpapi: user id is required")
)

// UserResolver extracts the authenticated user id from a request.
type UserResolver func(*http.Request) string

// Handlers exposes the canvas over HTTP. Mutations answer with the updated
// canvas snapshot so clients can re-render from a single response.
type Handlers struct {
	API       Executor
	Broadcast *canvas.BroadcastHook
	User      UserResolver
}

// Routes returns a chi router with every canvas endpoint mounted.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}

// Mount registers the canvas endpoints on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/layout", h.HandleLayout)
	r.Post("/layout/save", h.HandleSaveLayout)
	r.Post("/layout/clear", h.HandleClearLayout)

	r.Post("/session", h.HandleStartSession)
	r.Delete("/session", h.HandleEndSession)

	r.Get("/library", h.HandleLibrary)
	r.Post("/library/refresh", h.HandleRefreshLibrary)

	r.Route("/widgets", func(r chi.Router) {
		r.Post("/drop", h.HandleDrop)
		r.Post("/textbox", h.HandleAddTextBox)
		r.Post("/logo", h.HandleAddLogo)
		r.Patch("/{id}", h.HandleUpdateWidget)
		r.Delete("/{id}", h.HandleRemoveWidget)
		r.Post("/{id}/move", h.HandleMoveWidget)
		r.Post("/{id}/resize", h.HandleResizeWidget)
		r.Post("/{id}/edit", h.HandleEditTextBox)
	})

	r.Put("/background", h.HandleSetBackground)
	r.Put("/surface", h.HandleSetSurface)
	r.Get("/style-menu/{kind}", h.HandleStyleMenu)

	r.Get("/export/document", h.HandleExportDocument)
	r.Get("/export/image", h.HandleExportImage)

	if h.Broadcast != nil {
		r.Get("/events", h.HandleEvents)
		r.Get("/ws", h.HandleWebSocket)
	}
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w, r, user, http.StatusOK)
}

func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload canvas.StartSessionRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	if err := h.API.StartSession(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	h.respondSnapshot(w, r, user, http.StatusOK)
}

func (h *Handlers) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.API.EndSession(r.Context(), commands.EndSessionInput{UserID: user}); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	lib, err := h.API.Library(r.Context(), queries.UserInput{UserID: user})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

// HandleRefreshLibrary answers with the library state even when the fetch
// failed: the library is then empty and carries the error.
func (h *Handlers) HandleRefreshLibrary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	status := http.StatusOK
	if err := h.API.RefreshLibrary(r.Context(), commands.RefreshLibraryInput{UserID: user}); err != nil {
		status = http.StatusBadGateway
	}
	lib, err := h.API.Library(r.Context(), queries.UserInput{UserID: user})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, status, lib)
}

func (h *Handlers) HandleDrop(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload canvas.DropRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	h.mutate(w, r, user, http.StatusCreated, h.API.Drop(r.Context(), payload))
}

func (h *Handlers) HandleAddTextBox(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload canvas.AddTextBoxRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	h.mutate(w, r, user, http.StatusCreated, h.API.AddTextBox(r.Context(), payload))
}

func (h *Handlers) HandleAddLogo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload canvas.AddLogoRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	h.mutate(w, r, user, http.StatusCreated, h.API.AddLogo(r.Context(), payload))
}

func (h *Handlers) HandleUpdateWidget(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var patch canvas.WidgetPatch
	if !decode(w, r, &patch) {
		return
	}
	req := canvas.UpdateWidgetRequest{UserID: user, InstanceID: chi.URLParam(r, "id"), Patch: patch}
	h.mutate(w, r, user, http.StatusOK, h.API.UpdateWidget(r.Context(), req))
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	req := canvas.RemoveWidgetRequest{UserID: user, InstanceID: chi.URLParam(r, "id")}
	h.mutate(w, r, user, http.StatusOK, h.API.RemoveWidget(r.Context(), req))
}

func (h *Handlers) HandleMoveWidget(w http.ResponseWriter, r *http.Request) {
	user, req, ok := h.gesture(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, user, http.StatusOK, h.API.MoveWidget(r.Context(), req))
}

func (h *Handlers) HandleResizeWidget(w http.ResponseWriter, r *http.Request) {
	user, req, ok := h.gesture(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, user, http.StatusOK, h.API.ResizeWidget(r.Context(), req))
}

func (h *Handlers) HandleEditTextBox(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload canvas.EditTextBoxRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	payload.InstanceID = chi.URLParam(r, "id")
	h.mutate(w, r, user, http.StatusOK, h.API.EditTextBox(r.Context(), payload))
}

func (h *Handlers) HandleSaveLayout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, user, http.StatusOK, h.API.SaveLayout(r.Context(), commands.SaveLayoutInput{UserID: user}))
}

func (h *Handlers) HandleClearLayout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload commands.ClearLayoutInput
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	h.mutate(w, r, user, http.StatusOK, h.API.ClearLayout(r.Context(), payload))
}

func (h *Handlers) HandleSetBackground(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload canvas.SetBackgroundRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.UserID = user
	h.mutate(w, r, user, http.StatusOK, h.API.SetBackground(r.Context(), payload))
}

func (h *Handlers) HandleSetSurface(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var geometry canvas.SurfaceGeometry
	if !decode(w, r, &geometry) {
		return
	}
	req := canvas.SetSurfaceRequest{UserID: user, Geometry: geometry}
	h.mutate(w, r, user, http.StatusOK, h.API.SetSurface(r.Context(), req))
}

func (h *Handlers) HandleStyleMenu(w http.ResponseWriter, r *http.Request) {
	kind := canvas.WidgetKind(chi.URLParam(r, "kind"))
	menu, err := h.API.StyleMenu(r.Context(), queries.StyleMenuInput{Kind: kind})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handlers) HandleExportDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	artifact, err := h.API.ExportDocument(r.Context(), queries.UserInput{UserID: user})
	writeArtifact(w, artifact, err)
}

func (h *Handlers) HandleExportImage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	artifact, err := h.API.ExportImage(r.Context(), queries.UserInput{UserID: user})
	writeArtifact(w, artifact, err)
}

func (h *Handlers) gesture(w http.ResponseWriter, r *http.Request) (string, canvas.GestureRequest, bool) {
	user, ok := h.user(w, r)
	if !ok {
		return "", canvas.GestureRequest{}, false
	}
	var req canvas.GestureRequest
	if !decode(w, r, &req) {
		return "", canvas.GestureRequest{}, false
	}
	req.UserID = user
	req.InstanceID = chi.URLParam(r, "id")
	return user, req, true
}

func (h *Handlers) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	resolve := h.User
	if resolve == nil {
		resolve = canvas.RequestUserID
	}
	user := resolve(r)
	if user == "" {
		respondError(w, errUnauthorized)
		return "", false
	}
	return user, true
}

// HandleEvents streams the resolved user's events as SSE.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r, ok := h.streamRequest(w, r); ok {
		h.Broadcast.ServeSSE(w, r)
	}
}

// HandleWebSocket streams the resolved user's events over a WebSocket.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r, ok := h.streamRequest(w, r); ok {
		h.Broadcast.ServeWebSocket(w, r)
	}
}

// streamRequest pins the resolved user on the request the broadcaster reads.
func (h *Handlers) streamRequest(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	user, ok := h.user(w, r)
	if !ok {
		return nil, false
	}
	r = r.Clone(r.Context())
	r.Header.Set(canvas.UserHeader, user)
	return r, true
}

func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, user string, status int, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	h.respondSnapshot(w, r, user, status)
}

func (h *Handlers) respondSnapshot(w http.ResponseWriter, r *http.Request, user string, status int) {
	snapshot, err := h.API.Snapshot(r.Context(), queries.UserInput{UserID: user})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, status, snapshot)
}

// decode reads an optional JSON body. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	respondError(w, fmt.Errorf("%w: %v", errBadRequest, err))
	return false
}

func writeArtifact(w http.ResponseWriter, artifact *canvas.Artifact, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

// StatusFor maps canvas errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errUnauthorized), errors.Is(err, canvas.ErrMissingUser):
		return http.StatusUnauthorized
	case errors.Is(err, canvas.ErrDuplicateChart),
		errors.Is(err, canvas.ErrDuplicateInstance),
		errors.Is(err, canvas.ErrGestureActive):
		return http.StatusConflict
	case errors.Is(err, canvas.ErrWidgetNotFound),
		errors.Is(err, canvas.ErrUnknownChart),
		errors.Is(err, canvas.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, canvas.ErrNotConfirmed):
		return http.StatusPreconditionFailed
	case errors.Is(err, errBadRequest),
		errors.Is(err, canvas.ErrInvalidStyle),
		errors.Is(err, canvas.ErrStyleUnsupported),
		errors.Is(err, canvas.ErrInvalidImage),
		errors.Is(err, canvas.ErrUnknownPreset),
		errors.Is(err, canvas.ErrUnrecognizedSource),
		errors.Is(err, canvas.ErrOutsideHandle),
		errors.Is(err, canvas.ErrNotOnEdge),
		errors.Is(err, canvas.ErrNotEditable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
