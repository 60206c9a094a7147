package httpapi

import (
	"context"
	"errors"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/commands"
	"github.com/goliatone/go-canvas/components/canvas/queries"
	gocommand "github.com/goliatone/go-command"
)

// Executor is the transport-facing surface of the canvas. Every HTTP adapter
// (chi handlers, go-router registration) talks to the canvas through it.
type Executor interface {
	StartSession(ctx context.Context, req canvas.StartSessionRequest) error
	EndSession(ctx context.Context, input commands.EndSessionInput) error
	Drop(ctx context.Context, req canvas.DropRequest) error
	AddTextBox(ctx context.Context, req canvas.AddTextBoxRequest) error
	AddLogo(ctx context.Context, req canvas.AddLogoRequest) error
	UpdateWidget(ctx context.Context, req canvas.UpdateWidgetRequest) error
	MoveWidget(ctx context.Context, req canvas.GestureRequest) error
	ResizeWidget(ctx context.Context, req canvas.GestureRequest) error
	EditTextBox(ctx context.Context, req canvas.EditTextBoxRequest) error
	RemoveWidget(ctx context.Context, req canvas.RemoveWidgetRequest) error
	SaveLayout(ctx context.Context, input commands.SaveLayoutInput) error
	ClearLayout(ctx context.Context, input commands.ClearLayoutInput) error
	RefreshLibrary(ctx context.Context, input commands.RefreshLibraryInput) error
	SetBackground(ctx context.Context, req canvas.SetBackgroundRequest) error
	SetSurface(ctx context.Context, req canvas.SetSurfaceRequest) error

	Snapshot(ctx context.Context, input queries.UserInput) (canvas.Snapshot, error)
	Library(ctx context.Context, input queries.UserInput) (canvas.LibrarySnapshot, error)
	ExportDocument(ctx context.Context, input queries.UserInput) (*canvas.Artifact, error)
	ExportImage(ctx context.Context, input queries.UserInput) (*canvas.Artifact, error)
	StyleMenu(ctx context.Context, input queries.StyleMenuInput) (canvas.StyleMenu, error)
}

var errNotConfigured = errors.New("httpapi: operation not configured")

// CommandExecutor adapts go-command commanders and queriers to Executor.
// Nil members fail with an error instead of panicking.
type CommandExecutor struct {
	Start      gocommand.Commander[canvas.StartSessionRequest]
	End        gocommand.Commander[commands.EndSessionInput]
	DropChart  gocommand.Commander[canvas.DropRequest]
	AddText    gocommand.Commander[canvas.AddTextBoxRequest]
	AddImage   gocommand.Commander[canvas.AddLogoRequest]
	Update     gocommand.Commander[canvas.UpdateWidgetRequest]
	Move       gocommand.Commander[canvas.GestureRequest]
	Resize     gocommand.Commander[canvas.GestureRequest]
	Edit       gocommand.Commander[canvas.EditTextBoxRequest]
	Remove     gocommand.Commander[canvas.RemoveWidgetRequest]
	Save       gocommand.Commander[commands.SaveLayoutInput]
	Clear      gocommand.Commander[commands.ClearLayoutInput]
	Refresh    gocommand.Commander[commands.RefreshLibraryInput]
	Background gocommand.Commander[canvas.SetBackgroundRequest]
	Surface    gocommand.Commander[canvas.SetSurfaceRequest]
	Layout     gocommand.Querier[queries.UserInput, canvas.Snapshot]
	Charts     gocommand.Querier[queries.UserInput, canvas.LibrarySnapshot]
	Document   gocommand.Querier[queries.UserInput, *canvas.Artifact]
	Image      gocommand.Querier[queries.UserInput, *canvas.Artifact]
	Styles     gocommand.Querier[queries.StyleMenuInput, canvas.StyleMenu]
}

// NewCommandExecutor wires every command and query to one canvas service.
func NewCommandExecutor(service *canvas.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		Start:      commands.NewStartSessionCommand(service, telemetry),
		End:        commands.NewEndSessionCommand(service, telemetry),
		DropChart:  commands.NewDropChartCommand(service, telemetry),
		AddText:    commands.NewAddTextBoxCommand(service, telemetry),
		AddImage:   commands.NewAddLogoCommand(service, telemetry),
		Update:     commands.NewUpdateWidgetCommand(service, telemetry),
		Move:       commands.NewMoveWidgetCommand(service, telemetry),
		Resize:     commands.NewResizeWidgetCommand(service, telemetry),
		Edit:       commands.NewEditTextBoxCommand(service, telemetry),
		Remove:     commands.NewRemoveWidgetCommand(service, telemetry),
		Save:       commands.NewSaveLayoutCommand(service, telemetry),
		Clear:      commands.NewClearLayoutCommand(service, telemetry),
		Refresh:    commands.NewRefreshLibraryCommand(service, telemetry),
		Background: commands.NewSetBackgroundCommand(service, telemetry),
		Surface:    commands.NewSetSurfaceCommand(service, telemetry),
		Layout:     queries.NewLayoutQuery(service),
		Charts:     queries.NewLibraryQuery(service),
		Document:   queries.NewExportDocumentQuery(service),
		Image:      queries.NewExportImageQuery(service),
		Styles:     queries.NewStyleMenuQuery(service),
	}
}

var _ Executor = (*CommandExecutor)(nil)

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return errNotConfigured
	}
	return cmd.Execute(ctx, msg)
}

func query[T, R any](ctx context.Context, q gocommand.Querier[T, R], msg T) (R, error) {
	if q == nil {
		var zero R
		return zero, errNotConfigured
	}
	return q.Query(ctx, msg)
}

func (e *CommandExecutor) StartSession(ctx context.Context, req canvas.StartSessionRequest) error {
	return execute(ctx, e.Start, req)
}

func (e *CommandExecutor) EndSession(ctx context.Context, input commands.EndSessionInput) error {
	return execute(ctx, e.End, input)
}

func (e *CommandExecutor) Drop(ctx context.Context, req canvas.DropRequest) error {
	return execute(ctx, e.DropChart, req)
}

func (e *CommandExecutor) AddTextBox(ctx context.Context, req canvas.AddTextBoxRequest) error {
	return execute(ctx, e.AddText, req)
}

func (e *CommandExecutor) AddLogo(ctx context.Context, req canvas.AddLogoRequest) error {
	return execute(ctx, e.AddImage, req)
}

func (e *CommandExecutor) UpdateWidget(ctx context.Context, req canvas.UpdateWidgetRequest) error {
	return execute(ctx, e.Update, req)
}

func (e *CommandExecutor) MoveWidget(ctx context.Context, req canvas.GestureRequest) error {
	return execute(ctx, e.Move, req)
}

func (e *CommandExecutor) ResizeWidget(ctx context.Context, req canvas.GestureRequest) error {
	return execute(ctx, e.Resize, req)
}

func (e *CommandExecutor) EditTextBox(ctx context.Context, req canvas.EditTextBoxRequest) error {
	return execute(ctx, e.Edit, req)
}

func (e *CommandExecutor) RemoveWidget(ctx context.Context, req canvas.RemoveWidgetRequest) error {
	return execute(ctx, e.Remove, req)
}

func (e *CommandExecutor) SaveLayout(ctx context.Context, input commands.SaveLayoutInput) error {
	return execute(ctx, e.Save, input)
}

func (e *CommandExecutor) ClearLayout(ctx context.Context, input commands.ClearLayoutInput) error {
	return execute(ctx, e.Clear, input)
}

func (e *CommandExecutor) RefreshLibrary(ctx context.Context, input commands.RefreshLibraryInput) error {
	return execute(ctx, e.Refresh, input)
}

func (e *CommandExecutor) SetBackground(ctx context.Context, req canvas.SetBackgroundRequest) error {
	return execute(ctx, e.Background, req)
}

func (e *CommandExecutor) SetSurface(ctx context.Context, req canvas.SetSurfaceRequest) error {
	return execute(ctx, e.Surface, req)
}

func (e *CommandExecutor) Snapshot(ctx context.Context, input queries.UserInput) (canvas.Snapshot, error) {
	return query(ctx, e.Layout, input)
}

func (e *CommandExecutor) Library(ctx context.Context, input queries.UserInput) (canvas.LibrarySnapshot, error) {
	return query(ctx, e.Charts, input)
}

func (e *CommandExecutor) ExportDocument(ctx context.Context, input queries.UserInput) (*canvas.Artifact, error) {
	return query(ctx, e.Document, input)
}

func (e *CommandExecutor) ExportImage(ctx context.Context, input queries.UserInput) (*canvas.Artifact, error) {
	return query(ctx, e.Image, input)
}

func (e *CommandExecutor) StyleMenu(ctx context.Context, input queries.StyleMenuInput) (canvas.StyleMenu, error) {
	return query(ctx, e.Styles, input)
}
