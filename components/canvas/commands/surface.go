package commands

import (
	"context"
	"errors"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

type surfaceService interface {
	SetBackground(ctx context.Context, req canvas.SetBackgroundRequest) (canvas.Background, error)
	SetSurface(ctx context.Context, req canvas.SetSurfaceRequest) ([]canvas.Widget, error)
}

// SetBackgroundCommand switches the canvas background to a preset or image.
type SetBackgroundCommand struct {
	service   surfaceService
	telemetry Telemetry
}

// NewSetBackgroundCommand creates the command.
func NewSetBackgroundCommand(service surfaceService, telemetry Telemetry) *SetBackgroundCommand {
	return &SetBackgroundCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.SetBackgroundRequest] = (*SetBackgroundCommand)(nil)

// Execute delegates to the canvas service.
func (c *SetBackgroundCommand) Execute(ctx context.Context, msg canvas.SetBackgroundRequest) error {
	if c.service == nil {
		return errors.New("background command requires service")
	}
	bg, err := c.service.SetBackground(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.background", map[string]any{
		"user_id": msg.UserID,
		"kind":    string(bg.Kind),
		"preset":  bg.Preset,
	})
	return nil
}

// SetSurfaceCommand reports a new surface offset and size from the client.
type SetSurfaceCommand struct {
	service   surfaceService
	telemetry Telemetry
}

// NewSetSurfaceCommand creates the command.
func NewSetSurfaceCommand(service surfaceService, telemetry Telemetry) *SetSurfaceCommand {
	return &SetSurfaceCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.SetSurfaceRequest] = (*SetSurfaceCommand)(nil)

// Execute re-clamps widgets against the new bounds.
func (c *SetSurfaceCommand) Execute(ctx context.Context, msg canvas.SetSurfaceRequest) error {
	if c.service == nil {
		return errors.New("surface command requires service")
	}
	moved, err := c.service.SetSurface(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.surface", map[string]any{
		"user_id": msg.UserID,
		"moved":   len(moved),
	})
	return nil
}
