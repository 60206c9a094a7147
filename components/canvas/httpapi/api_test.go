package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/commands"
	"github.com/goliatone/go-canvas/components/canvas/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	err      error
	calls    []string
	drop     canvas.DropRequest
	update   canvas.UpdateWidgetRequest
	gesture  canvas.GestureRequest
	clear    commands.ClearLayoutInput
	artifact *canvas.Artifact
}

func (s *stubExecutor) record(name string) error {
	s.calls = append(s.calls, name)
	return s.err
}

func (s *stubExecutor) StartSession(context.Context, canvas.StartSessionRequest) error {
	return s.record("start")
}

func (s *stubExecutor) EndSession(context.Context, commands.EndSessionInput) error {
	return s.record("end")
}

func (s *stubExecutor) Drop(_ context.Context, req canvas.DropRequest) error {
	s.drop = req
	return s.record("drop")
}

func (s *stubExecutor) AddTextBox(context.Context, canvas.AddTextBoxRequest) error {
	return s.record("textbox")
}

func (s *stubExecutor) AddLogo(context.Context, canvas.AddLogoRequest) error {
	return s.record("logo")
}

func (s *stubExecutor) UpdateWidget(_ context.Context, req canvas.UpdateWidgetRequest) error {
	s.update = req
	return s.record("update")
}

func (s *stubExecutor) MoveWidget(_ context.Context, req canvas.GestureRequest) error {
	s.gesture = req
	return s.record("move")
}

func (s *stubExecutor) ResizeWidget(_ context.Context, req canvas.GestureRequest) error {
	s.gesture = req
	return s.record("resize")
}

func (s *stubExecutor) EditTextBox(context.Context, canvas.EditTextBoxRequest) error {
	return s.record("edit")
}

func (s *stubExecutor) RemoveWidget(context.Context, canvas.RemoveWidgetRequest) error {
	return s.record("remove")
}

func (s *stubExecutor) SaveLayout(context.Context, commands.SaveLayoutInput) error {
	return s.record("save")
}

func (s *stubExecutor) ClearLayout(_ context.Context, input commands.ClearLayoutInput) error {
	s.clear = input
	return s.record("clear")
}

func (s *stubExecutor) RefreshLibrary(context.Context, commands.RefreshLibraryInput) error {
	return s.record("refresh")
}

func (s *stubExecutor) SetBackground(context.Context, canvas.SetBackgroundRequest) error {
	return s.record("background")
}

func (s *stubExecutor) SetSurface(context.Context, canvas.SetSurfaceRequest) error {
	return s.record("surface")
}

func (s *stubExecutor) Snapshot(_ context.Context, input queries.UserInput) (canvas.Snapshot, error) {
	return canvas.Snapshot{UserID: input.UserID}, nil
}

func (s *stubExecutor) Library(context.Context, queries.UserInput) (canvas.LibrarySnapshot, error) {
	return canvas.LibrarySnapshot{State: canvas.LibraryEmpty}, nil
}

func (s *stubExecutor) ExportDocument(context.Context, queries.UserInput) (*canvas.Artifact, error) {
	return s.artifact, s.record("document")
}

func (s *stubExecutor) ExportImage(context.Context, queries.UserInput) (*canvas.Artifact, error) {
	return s.artifact, s.record("image")
}

func (s *stubExecutor) StyleMenu(_ context.Context, input queries.StyleMenuInput) (canvas.StyleMenu, error) {
	menu, ok := canvas.StyleMenuFor(canvas.DefaultCatalog(), input.Kind)
	if !ok {
		return menu, canvas.ErrStyleUnsupported
	}
	return menu, nil
}

func serve(t *testing.T, api *stubExecutor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	handlers := &Handlers{API: api}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(canvas.UserHeader, "u1")
	rec := httptest.NewRecorder()
	handlers.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleDropUsesResolvedUser(t *testing.T) {
	api := &stubExecutor{}
	rec := serve(t, api, http.MethodPost, "/widgets/drop", `{"userId":"spoofed","chartId":"c1","source":"chart-library","clientX":400,"clientY":300}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", api.drop.UserID)
	assert.Equal(t, "c1", api.drop.ChartID)
	assert.Equal(t, 400.0, api.drop.ClientX)

	var snapshot canvas.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "u1", snapshot.UserID)
}

func TestHandleDropDuplicateIsConflict(t *testing.T) {
	api := &stubExecutor{err: fmt.Errorf("%w: c1", canvas.ErrDuplicateChart)}
	rec := serve(t, api, http.MethodPost, "/widgets/drop", `{"chartId":"c1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already on the dashboard")
}

func TestHandleUpdateWidget(t *testing.T) {
	api := &stubExecutor{}
	rec := serve(t, api, http.MethodPatch, "/widgets/w1", `{"size":{"width":500,"height":320}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "w1", api.update.InstanceID)
	require.NotNil(t, api.update.Patch.Size)
	assert.Equal(t, 500.0, api.update.Patch.Size.Width)
}

func TestHandleGesture(t *testing.T) {
	api := &stubExecutor{}
	rec := serve(t, api, http.MethodPost, "/widgets/w2/move", `{"grab":{"x":10,"y":5},"dx":30,"dy":-4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, canvas.GestureRequest{UserID: "u1", InstanceID: "w2", Grab: canvas.Point{X: 10, Y: 5}, DX: 30, DY: -4}, api.gesture)
}

func TestHandleClearLayoutRequiresConfirmation(t *testing.T) {
	api := &stubExecutor{err: canvas.ErrNotConfirmed}
	rec := serve(t, api, http.MethodPost, "/layout/clear", `{"confirmed":false}`)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.False(t, api.clear.Confirmed)
}

func TestHandleMalformedBody(t *testing.T) {
	api := &stubExecutor{}
	rec := serve(t, api, http.MethodPost, "/widgets/textbox", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, api.calls)
}

func TestHandleEmptyBodyIsAllowed(t *testing.T) {
	api := &stubExecutor{}
	rec := serve(t, api, http.MethodPost, "/widgets/textbox", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"textbox"}, api.calls)
}

func TestHandleMissingUser(t *testing.T) {
	api := &stubExecutor{}
	handlers := &Handlers{API: api}
	req := httptest.NewRequest(http.MethodGet, "/layout", nil)
	rec := httptest.NewRecorder()
	handlers.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleEventStreamsRequireUser(t *testing.T) {
	handlers := &Handlers{API: &stubExecutor{}, Broadcast: canvas.NewBroadcastHook()}
	for _, path := range []string{"/events", "/ws", "/events?user="} {
		rec := httptest.NewRecorder()
		handlers.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "data:", path)
	}
}

func TestStreamRequestPinsResolvedUser(t *testing.T) {
	handlers := &Handlers{
		API:  &stubExecutor{},
		User: func(r *http.Request) string { return r.Header.Get("X-Session-User") },
	}
	req := httptest.NewRequest(http.MethodGet, "/events?user=mallory", nil)
	req.Header.Set("X-Session-User", "alice")

	pinned, ok := handlers.streamRequest(httptest.NewRecorder(), req)
	require.True(t, ok)
	assert.Equal(t, "alice", canvas.RequestUserID(pinned))
	assert.Empty(t, req.Header.Get(canvas.UserHeader))
}

func TestHandleExportDocument(t *testing.T) {
	api := &stubExecutor{artifact: &canvas.Artifact{
		Filename:    canvas.DocumentFilename,
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<html></html>"),
	}}
	rec := serve(t, api, http.MethodGet, "/export/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="dashboard.html"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "<html></html>", rec.Body.String())
}

func TestHandleExportFailure(t *testing.T) {
	api := &stubExecutor{err: fmt.Errorf("%w: dashboard.png: boom", canvas.ErrExportFailed)}
	rec := serve(t, api, http.MethodGet, "/export/image", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleStyleMenu(t *testing.T) {
	api := &stubExecutor{}
	rec := serve(t, api, http.MethodGet, "/style-menu/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var menu canvas.StyleMenu
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	assert.Equal(t, canvas.KindGraph, menu.Kind)

	rec = serve(t, api, http.MethodGet, "/style-menu/logo", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefreshLibraryFailure(t *testing.T) {
	api := &stubExecutor{err: errors.New("upstream down")}
	rec := serve(t, api, http.MethodPost, "/library/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"empty"`)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		canvas.ErrWidgetNotFound:    http.StatusNotFound,
		canvas.ErrUnknownChart:      http.StatusNotFound,
		canvas.ErrNoSession:         http.StatusNotFound,
		canvas.ErrGestureActive:     http.StatusConflict,
		canvas.ErrInvalidImage:      http.StatusBadRequest,
		canvas.ErrUnknownPreset:     http.StatusBadRequest,
		canvas.ErrMissingUser:       http.StatusUnauthorized,
		errors.New("anything else"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestCommandExecutorRequiresCommands(t *testing.T) {
	exec := &CommandExecutor{}
	err := exec.Drop(context.Background(), canvas.DropRequest{})
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = exec.Snapshot(context.Background(), queries.UserInput{})
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestCommandExecutorAgainstService(t *testing.T) {
	service := canvas.NewService(canvas.Options{SkipInitialRefresh: true})
	exec := NewCommandExecutor(service, nil)
	ctx := context.Background()

	require.NoError(t, exec.AddTextBox(ctx, canvas.AddTextBoxRequest{UserID: "u1", Content: "Hello"}))
	snapshot, err := exec.Snapshot(ctx, queries.UserInput{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, snapshot.Widgets, 1)
	assert.Equal(t, "Hello", snapshot.Widgets[0].Content)

	err = exec.ClearLayout(ctx, commands.ClearLayoutInput{UserID: "u1"})
	require.ErrorIs(t, err, canvas.ErrNotConfirmed)
	require.NoError(t, exec.ClearLayout(ctx, commands.ClearLayoutInput{UserID: "u1", Confirmed: true}))
	snapshot, err = exec.Snapshot(ctx, queries.UserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, snapshot.Widgets)
}
