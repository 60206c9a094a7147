package queries

import (
	"context"
	"fmt"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	gocommand "github.com/goliatone/go-command"
)

// StyleMenuInput names the widget kind whose menu is requested.
type StyleMenuInput struct {
	Kind canvas.WidgetKind `json:"kind"`
}

type styleService interface {
	StyleMenu(kind canvas.WidgetKind) (canvas.StyleMenu, bool)
}

// StyleMenuQuery describes the style options of a widget kind.
type StyleMenuQuery struct {
	service styleService
}

// NewStyleMenuQuery builds the query.
func NewStyleMenuQuery(service styleService) *StyleMenuQuery {
	return &StyleMenuQuery{service: service}
}

var _ gocommand.Querier[StyleMenuInput, canvas.StyleMenu] = (*StyleMenuQuery)(nil)

// Query returns the menu, or ErrStyleUnsupported for kinds without one.
func (q *StyleMenuQuery) Query(_ context.Context, input StyleMenuInput) (canvas.StyleMenu, error) {
	menu, ok := q.service.StyleMenu(input.Kind)
	if !ok {
		return canvas.StyleMenu{}, fmt.Errorf("%w: %s", canvas.ErrStyleUnsupported, input.Kind)
	}
	return menu, nil
}
