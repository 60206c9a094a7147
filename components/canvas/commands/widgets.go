package commands

import (
	"context"
	"errors"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

type dropService interface {
	Drop(ctx context.Context, req canvas.DropRequest) (canvas.Widget, error)
}

// DropChartCommand places a library chart on the canvas at the drop point.
type DropChartCommand struct {
	service   dropService
	telemetry Telemetry
}

// NewDropChartCommand creates the command.
func NewDropChartCommand(service dropService, telemetry Telemetry) *DropChartCommand {
	return &DropChartCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.DropRequest] = (*DropChartCommand)(nil)

// Execute delegates to the canvas service.
func (c *DropChartCommand) Execute(ctx context.Context, msg canvas.DropRequest) error {
	if c.service == nil {
		return errors.New("drop command requires service")
	}
	widget, err := c.service.Drop(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.drop", map[string]any{
		"user_id":     msg.UserID,
		"chart_id":    msg.ChartID,
		"instance_id": widget.InstanceID,
	})
	return nil
}

type addService interface {
	AddTextBox(ctx context.Context, req canvas.AddTextBoxRequest) (canvas.Widget, error)
	AddLogo(ctx context.Context, req canvas.AddLogoRequest) (canvas.Widget, error)
}

// AddTextBoxCommand adds a text box at the next cascade position.
type AddTextBoxCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddTextBoxCommand creates the command.
func NewAddTextBoxCommand(service addService, telemetry Telemetry) *AddTextBoxCommand {
	return &AddTextBoxCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.AddTextBoxRequest] = (*AddTextBoxCommand)(nil)

// Execute delegates to the canvas service.
func (c *AddTextBoxCommand) Execute(ctx context.Context, msg canvas.AddTextBoxRequest) error {
	if c.service == nil {
		return errors.New("add text box command requires service")
	}
	widget, err := c.service.AddTextBox(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.add_textbox", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": widget.InstanceID,
	})
	return nil
}

// AddLogoCommand adds an image widget from an uploaded data URI.
type AddLogoCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddLogoCommand creates the command.
func NewAddLogoCommand(service addService, telemetry Telemetry) *AddLogoCommand {
	return &AddLogoCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.AddLogoRequest] = (*AddLogoCommand)(nil)

// Execute delegates to the canvas service.
func (c *AddLogoCommand) Execute(ctx context.Context, msg canvas.AddLogoRequest) error {
	if c.service == nil {
		return errors.New("add logo command requires service")
	}
	widget, err := c.service.AddLogo(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.add_logo", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": widget.InstanceID,
	})
	return nil
}

type updateService interface {
	UpdateWidget(ctx context.Context, req canvas.UpdateWidgetRequest) (canvas.Widget, error)
}

// UpdateWidgetCommand merges a partial change into a widget.
type UpdateWidgetCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewUpdateWidgetCommand creates the command.
func NewUpdateWidgetCommand(service updateService, telemetry Telemetry) *UpdateWidgetCommand {
	return &UpdateWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.UpdateWidgetRequest] = (*UpdateWidgetCommand)(nil)

// Execute delegates to the canvas service.
func (c *UpdateWidgetCommand) Execute(ctx context.Context, msg canvas.UpdateWidgetRequest) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.InstanceID == "" {
		return errors.New("update command requires instance id")
	}
	if _, err := c.service.UpdateWidget(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.update", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": msg.InstanceID,
	})
	return nil
}

type gestureService interface {
	MoveWidget(ctx context.Context, req canvas.GestureRequest) (canvas.Widget, error)
	ResizeWidget(ctx context.Context, req canvas.GestureRequest) (canvas.Widget, error)
	EditTextBox(ctx context.Context, req canvas.EditTextBoxRequest) (canvas.Widget, error)
}

// MoveWidgetCommand replays a completed drag gesture.
type MoveWidgetCommand struct {
	service   gestureService
	telemetry Telemetry
}

// NewMoveWidgetCommand creates the command.
func NewMoveWidgetCommand(service gestureService, telemetry Telemetry) *MoveWidgetCommand {
	return &MoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.GestureRequest] = (*MoveWidgetCommand)(nil)

// Execute delegates to the canvas service.
func (c *MoveWidgetCommand) Execute(ctx context.Context, msg canvas.GestureRequest) error {
	if c.service == nil {
		return errors.New("move command requires service")
	}
	widget, err := c.service.MoveWidget(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.move", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": msg.InstanceID,
		"x":           widget.Position.X,
		"y":           widget.Position.Y,
	})
	return nil
}

// ResizeWidgetCommand replays a completed resize gesture.
type ResizeWidgetCommand struct {
	service   gestureService
	telemetry Telemetry
}

// NewResizeWidgetCommand creates the command.
func NewResizeWidgetCommand(service gestureService, telemetry Telemetry) *ResizeWidgetCommand {
	return &ResizeWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.GestureRequest] = (*ResizeWidgetCommand)(nil)

// Execute delegates to the canvas service.
func (c *ResizeWidgetCommand) Execute(ctx context.Context, msg canvas.GestureRequest) error {
	if c.service == nil {
		return errors.New("resize command requires service")
	}
	widget, err := c.service.ResizeWidget(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.resize", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": msg.InstanceID,
		"width":       widget.Size.Width,
		"height":      widget.Size.Height,
	})
	return nil
}

// EditTextBoxCommand commits edited text box content.
type EditTextBoxCommand struct {
	service   gestureService
	telemetry Telemetry
}

// NewEditTextBoxCommand creates the command.
func NewEditTextBoxCommand(service gestureService, telemetry Telemetry) *EditTextBoxCommand {
	return &EditTextBoxCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.EditTextBoxRequest] = (*EditTextBoxCommand)(nil)

// Execute delegates to the canvas service.
func (c *EditTextBoxCommand) Execute(ctx context.Context, msg canvas.EditTextBoxRequest) error {
	if c.service == nil {
		return errors.New("edit command requires service")
	}
	if _, err := c.service.EditTextBox(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.edit", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": msg.InstanceID,
	})
	return nil
}

type removeService interface {
	RemoveWidget(ctx context.Context, req canvas.RemoveWidgetRequest) error
}

// RemoveWidgetCommand deletes a widget from the canvas.
type RemoveWidgetCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemoveWidgetCommand creates the command.
func NewRemoveWidgetCommand(service removeService, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.RemoveWidgetRequest] = (*RemoveWidgetCommand)(nil)

// Execute removes the widget.
func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg canvas.RemoveWidgetRequest) error {
	if c.service == nil {
		return errors.New("remove command requires service")
	}
	if msg.InstanceID == "" {
		return errors.New("remove command requires instance id")
	}
	if err := c.service.RemoveWidget(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.remove", map[string]any{
		"user_id":     msg.UserID,
		"instance_id": msg.InstanceID,
	})
	return nil
}
