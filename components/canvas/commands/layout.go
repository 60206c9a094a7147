package commands

import (
	"context"
	"errors"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

// SaveLayoutInput identifies whose layout to persist.
type SaveLayoutInput struct {
	UserID string `json:"userId"`
}

// ClearLayoutInput carries the answer to the clear confirmation prompt.
type ClearLayoutInput struct {
	UserID    string `json:"userId"`
	Confirmed bool   `json:"confirmed"`
}

type layoutService interface {
	SaveLayout(ctx context.Context, userID string) error
	ClearLayout(ctx context.Context, req canvas.ClearLayoutRequest) error
}

// SaveLayoutCommand persists the current widget collection.
type SaveLayoutCommand struct {
	service   layoutService
	telemetry Telemetry
}

// NewSaveLayoutCommand creates the command.
func NewSaveLayoutCommand(service layoutService, telemetry Telemetry) *SaveLayoutCommand {
	return &SaveLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutInput] = (*SaveLayoutCommand)(nil)

// Execute saves the layout.
func (c *SaveLayoutCommand) Execute(ctx context.Context, msg SaveLayoutInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	if err := c.service.SaveLayout(ctx, msg.UserID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.save", map[string]any{"user_id": msg.UserID})
	return nil
}

// ClearLayoutCommand empties the canvas and removes the saved layout. The
// confirmation prompt is answered client side; Confirmed carries the answer.
type ClearLayoutCommand struct {
	service   layoutService
	telemetry Telemetry
}

// NewClearLayoutCommand creates the command.
func NewClearLayoutCommand(service layoutService, telemetry Telemetry) *ClearLayoutCommand {
	return &ClearLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ClearLayoutInput] = (*ClearLayoutCommand)(nil)

// Execute clears the layout when confirmed.
func (c *ClearLayoutCommand) Execute(ctx context.Context, msg ClearLayoutInput) error {
	if c.service == nil {
		return errors.New("clear command requires service")
	}
	err := c.service.ClearLayout(ctx, canvas.ClearLayoutRequest{
		UserID:    msg.UserID,
		Confirmer: canvas.Confirmed(msg.Confirmed),
	})
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.clear", map[string]any{"user_id": msg.UserID})
	return nil
}
