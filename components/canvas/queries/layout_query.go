package queries

import (
	"context"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

// UserInput identifies the user a read is performed for.
type UserInput struct {
	UserID string `json:"userId"`
}

type snapshotService interface {
	Snapshot(ctx context.Context, userID string) (canvas.Snapshot, error)
}

// LayoutQuery returns the canvas state of a user: widgets, surface,
// background and library.
type LayoutQuery struct {
	service snapshotService
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(service snapshotService) *LayoutQuery {
	return &LayoutQuery{service: service}
}

var _ gocommand.Querier[UserInput, canvas.Snapshot] = (*LayoutQuery)(nil)

// Query resolves the snapshot for the user.
func (q *LayoutQuery) Query(ctx context.Context, input UserInput) (canvas.Snapshot, error) {
	return q.service.Snapshot(ctx, input.UserID)
}

type libraryService interface {
	Library(ctx context.Context, userID string) (canvas.LibrarySnapshot, error)
}

// LibraryQuery lists the cached chart library entries.
type LibraryQuery struct {
	service libraryService
}

// NewLibraryQuery builds the query.
func NewLibraryQuery(service libraryService) *LibraryQuery {
	return &LibraryQuery{service: service}
}

var _ gocommand.Querier[UserInput, canvas.LibrarySnapshot] = (*LibraryQuery)(nil)

// Query returns the library state without refetching.
func (q *LibraryQuery) Query(ctx context.Context, input UserInput) (canvas.LibrarySnapshot, error) {
	return q.service.Library(ctx, input.UserID)
}
