package queries

import (
	"context"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

type exportService interface {
	ExportDocument(ctx context.Context, userID string) (*canvas.Artifact, error)
	ExportImage(ctx context.Context, userID string) (*canvas.Artifact, error)
}

// ExportDocumentQuery produces the standalone dashboard.html artifact.
type ExportDocumentQuery struct {
	service exportService
}

// NewExportDocumentQuery builds the query.
func NewExportDocumentQuery(service exportService) *ExportDocumentQuery {
	return &ExportDocumentQuery{service: service}
}

var _ gocommand.Querier[UserInput, *canvas.Artifact] = (*ExportDocumentQuery)(nil)

// Query renders the document.
func (q *ExportDocumentQuery) Query(ctx context.Context, input UserInput) (*canvas.Artifact, error) {
	return q.service.ExportDocument(ctx, input.UserID)
}

// ExportImageQuery produces the dashboard.png artifact.
type ExportImageQuery struct {
	service exportService
}

// NewExportImageQuery builds the query.
func NewExportImageQuery(service exportService) *ExportImageQuery {
	return &ExportImageQuery{service: service}
}

var _ gocommand.Querier[UserInput, *canvas.Artifact] = (*ExportImageQuery)(nil)

// Query rasterizes the canvas.
func (q *ExportImageQuery) Query(ctx context.Context, input UserInput) (*canvas.Artifact, error) {
	return q.service.ExportImage(ctx, input.UserID)
}
