package commands

import (
	"context"
	"testing"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewStartSessionCommand(service, telemetry)
	require.NoError(t, cmd.Execute(context.Background(), canvas.StartSessionRequest{UserID: "u1"}))
	assert.Equal(t, 1, service.calls["start"])
	assert.Equal(t, []string{"canvas.session.start"}, telemetry.events)
}

func TestEndSessionCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewEndSessionCommand(service, nil)
	require.NoError(t, cmd.Execute(context.Background(), EndSessionInput{UserID: "u1"}))
	assert.Equal(t, 1, service.calls["end"])
}

func TestDropChartCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewDropChartCommand(service, telemetry)
	req := canvas.DropRequest{UserID: "u1", ChartID: "c1", Source: canvas.SourceChartLibrary, ClientX: 400, ClientY: 300}
	require.NoError(t, cmd.Execute(context.Background(), req))
	assert.Equal(t, req, service.lastDrop)
	assert.Equal(t, []string{"canvas.command.drop"}, telemetry.events)
}

func TestDropChartCommandPropagatesErrors(t *testing.T) {
	service := &stubService{err: canvas.ErrDuplicateChart}
	telemetry := &stubTelemetry{}
	cmd := NewDropChartCommand(service, telemetry)
	err := cmd.Execute(context.Background(), canvas.DropRequest{UserID: "u1", ChartID: "c1"})
	require.ErrorIs(t, err, canvas.ErrDuplicateChart)
	assert.Empty(t, telemetry.events)
}

func TestCommandsRequireService(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewDropChartCommand(nil, nil).Execute(ctx, canvas.DropRequest{}))
	assert.Error(t, NewSaveLayoutCommand(nil, nil).Execute(ctx, SaveLayoutInput{}))
	assert.Error(t, NewSetBackgroundCommand(nil, nil).Execute(ctx, canvas.SetBackgroundRequest{}))
}

func TestAddCommands(t *testing.T) {
	service := &stubService{}
	ctx := context.Background()
	require.NoError(t, NewAddTextBoxCommand(service, nil).Execute(ctx, canvas.AddTextBoxRequest{UserID: "u1", Content: "hi"}))
	require.NoError(t, NewAddLogoCommand(service, nil).Execute(ctx, canvas.AddLogoRequest{UserID: "u1", Src: "data:image/png;base64,AA=="}))
	assert.Equal(t, 1, service.calls["textbox"])
	assert.Equal(t, 1, service.calls["logo"])
}

func TestUpdateAndRemoveRequireInstanceID(t *testing.T) {
	service := &stubService{}
	ctx := context.Background()
	assert.Error(t, NewUpdateWidgetCommand(service, nil).Execute(ctx, canvas.UpdateWidgetRequest{UserID: "u1"}))
	assert.Error(t, NewRemoveWidgetCommand(service, nil).Execute(ctx, canvas.RemoveWidgetRequest{UserID: "u1"}))
	assert.Empty(t, service.calls)

	require.NoError(t, NewRemoveWidgetCommand(service, nil).Execute(ctx, canvas.RemoveWidgetRequest{UserID: "u1", InstanceID: "w1"}))
	assert.Equal(t, 1, service.calls["remove"])
}

func TestGestureCommands(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	ctx := context.Background()
	gesture := canvas.GestureRequest{UserID: "u1", InstanceID: "w1", DX: 10, DY: 5}
	require.NoError(t, NewMoveWidgetCommand(service, telemetry).Execute(ctx, gesture))
	require.NoError(t, NewResizeWidgetCommand(service, telemetry).Execute(ctx, gesture))
	require.NoError(t, NewEditTextBoxCommand(service, telemetry).Execute(ctx, canvas.EditTextBoxRequest{UserID: "u1", InstanceID: "w1", Content: "x"}))
	assert.Equal(t, []string{"canvas.command.move", "canvas.command.resize", "canvas.command.edit"}, telemetry.events)
}

func TestClearLayoutCommandForwardsConfirmation(t *testing.T) {
	ctx := context.Background()
	service := &stubService{}
	cmd := NewClearLayoutCommand(service, nil)

	require.NoError(t, cmd.Execute(ctx, ClearLayoutInput{UserID: "u1", Confirmed: true}))
	assert.True(t, service.lastConfirm)

	require.NoError(t, cmd.Execute(ctx, ClearLayoutInput{UserID: "u1"}))
	assert.False(t, service.lastConfirm)
}

func TestSaveAndRefreshCommands(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	ctx := context.Background()
	require.NoError(t, NewSaveLayoutCommand(service, telemetry).Execute(ctx, SaveLayoutInput{UserID: "u1"}))
	require.NoError(t, NewRefreshLibraryCommand(service, telemetry).Execute(ctx, RefreshLibraryInput{UserID: "u1"}))
	assert.Equal(t, []string{"canvas.command.save", "canvas.command.refresh_library"}, telemetry.events)
}

func TestSurfaceCommands(t *testing.T) {
	service := &stubService{}
	ctx := context.Background()
	require.NoError(t, NewSetBackgroundCommand(service, nil).Execute(ctx, canvas.SetBackgroundRequest{UserID: "u1", Preset: "grid"}))
	require.NoError(t, NewSetSurfaceCommand(service, nil).Execute(ctx, canvas.SetSurfaceRequest{UserID: "u1"}))
	assert.Equal(t, 1, service.calls["background"])
	assert.Equal(t, 1, service.calls["surface"])
}

type stubService struct {
	calls       map[string]int
	err         error
	lastDrop    canvas.DropRequest
	lastConfirm bool
}

func (s *stubService) hit(name string) error {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
	return s.err
}

func (s *stubService) StartSession(context.Context, canvas.StartSessionRequest) (canvas.Snapshot, error) {
	return canvas.Snapshot{SessionID: "s1"}, s.hit("start")
}

func (s *stubService) EndSession(context.Context, string) error { return s.hit("end") }

func (s *stubService) Drop(_ context.Context, req canvas.DropRequest) (canvas.Widget, error) {
	s.lastDrop = req
	return canvas.Widget{InstanceID: "w1"}, s.hit("drop")
}

func (s *stubService) AddTextBox(context.Context, canvas.AddTextBoxRequest) (canvas.Widget, error) {
	return canvas.Widget{InstanceID: "w2"}, s.hit("textbox")
}

func (s *stubService) AddLogo(context.Context, canvas.AddLogoRequest) (canvas.Widget, error) {
	return canvas.Widget{InstanceID: "w3"}, s.hit("logo")
}

func (s *stubService) UpdateWidget(context.Context, canvas.UpdateWidgetRequest) (canvas.Widget, error) {
	return canvas.Widget{}, s.hit("update")
}

func (s *stubService) MoveWidget(context.Context, canvas.GestureRequest) (canvas.Widget, error) {
	return canvas.Widget{}, s.hit("move")
}

func (s *stubService) ResizeWidget(context.Context, canvas.GestureRequest) (canvas.Widget, error) {
	return canvas.Widget{}, s.hit("resize")
}

func (s *stubService) EditTextBox(context.Context, canvas.EditTextBoxRequest) (canvas.Widget, error) {
	return canvas.Widget{}, s.hit("edit")
}

func (s *stubService) RemoveWidget(context.Context, canvas.RemoveWidgetRequest) error {
	return s.hit("remove")
}

func (s *stubService) SaveLayout(context.Context, string) error { return s.hit("save") }

func (s *stubService) ClearLayout(ctx context.Context, req canvas.ClearLayoutRequest) error {
	s.lastConfirm = req.Confirmer.Confirm(ctx, canvas.ClearPrompt)
	return s.hit("clear")
}

func (s *stubService) RefreshLibrary(context.Context, string) (canvas.LibrarySnapshot, error) {
	return canvas.LibrarySnapshot{}, s.hit("refresh")
}

func (s *stubService) SetBackground(context.Context, canvas.SetBackgroundRequest) (canvas.Background, error) {
	return canvas.Background{Kind: canvas.BackgroundPreset, Preset: "grid"}, s.hit("background")
}

func (s *stubService) SetSurface(context.Context, canvas.SetSurfaceRequest) ([]canvas.Widget, error) {
	return nil, s.hit("surface")
}

type stubTelemetry struct {
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.events = append(s.events, event)
}
