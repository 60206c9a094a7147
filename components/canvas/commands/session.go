package commands

import (
	"context"
	"errors"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

type sessionService interface {
	StartSession(ctx context.Context, req canvas.StartSessionRequest) (canvas.Snapshot, error)
	EndSession(ctx context.Context, userID string) error
}

// StartSessionCommand opens (or resumes) a user's canvas: the saved layout is
// loaded and the chart library fetched.
type StartSessionCommand struct {
	service   sessionService
	telemetry Telemetry
}

// NewStartSessionCommand creates the command.
func NewStartSessionCommand(service sessionService, telemetry Telemetry) *StartSessionCommand {
	return &StartSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[canvas.StartSessionRequest] = (*StartSessionCommand)(nil)

// Execute starts the session.
func (c *StartSessionCommand) Execute(ctx context.Context, msg canvas.StartSessionRequest) error {
	if c.service == nil {
		return errors.New("start session command requires service")
	}
	snapshot, err := c.service.StartSession(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.session.start", map[string]any{
		"user_id":    msg.UserID,
		"session_id": snapshot.SessionID,
		"widgets":    len(snapshot.Widgets),
	})
	return nil
}

// EndSessionInput identifies the session to close.
type EndSessionInput struct {
	UserID string `json:"userId"`
}

// EndSessionCommand discards the in-memory session of a user.
type EndSessionCommand struct {
	service   sessionService
	telemetry Telemetry
}

// NewEndSessionCommand creates the command.
func NewEndSessionCommand(service sessionService, telemetry Telemetry) *EndSessionCommand {
	return &EndSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EndSessionInput] = (*EndSessionCommand)(nil)

// Execute ends the session.
func (c *EndSessionCommand) Execute(ctx context.Context, msg EndSessionInput) error {
	if c.service == nil {
		return errors.New("end session command requires service")
	}
	if err := c.service.EndSession(ctx, msg.UserID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.session.end", map[string]any{"user_id": msg.UserID})
	return nil
}
