package commands

import (
	"context"
	"errors"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

// RefreshLibraryInput identifies whose chart library to reload.
type RefreshLibraryInput struct {
	UserID string `json:"userId"`
}

type libraryService interface {
	RefreshLibrary(ctx context.Context, userID string) (canvas.LibrarySnapshot, error)
}

// RefreshLibraryCommand refetches the user's charts from the chart source.
type RefreshLibraryCommand struct {
	service   libraryService
	telemetry Telemetry
}

// NewRefreshLibraryCommand creates the command.
func NewRefreshLibraryCommand(service libraryService, telemetry Telemetry) *RefreshLibraryCommand {
	return &RefreshLibraryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshLibraryInput] = (*RefreshLibraryCommand)(nil)

// Execute refreshes the library. A failed fetch is returned after the
// library has already been emptied and the user notified.
func (c *RefreshLibraryCommand) Execute(ctx context.Context, msg RefreshLibraryInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	snapshot, err := c.service.RefreshLibrary(ctx, msg.UserID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "canvas.command.refresh_library", map[string]any{
		"user_id": msg.UserID,
		"entries": len(snapshot.Entries),
	})
	return nil
}
