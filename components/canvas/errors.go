package canvas

import "errors"

var (
	// ErrWidgetNotFound is returned when an operation targets an unknown widget.
	ErrWidgetNotFound = errors.New("canvas: widget not found")
	// ErrDuplicateChart is returned when a chart already on the canvas is dropped again.
	ErrDuplicateChart = errors.New("canvas: chart is already on the dashboard")
	// ErrUnknownChart is returned when a drop references a chart missing from the library.
	ErrUnknownChart = errors.New("canvas: chart is not in the library")
	// ErrUnrecognizedSource is returned for drops that do not come from the chart library.
	ErrUnrecognizedSource = errors.New("canvas: drop source is not recognized")
	// ErrMissingUser is returned when an operation has no user identity.
	ErrMissingUser = errors.New("canvas: user id is required")
	// ErrNotConfirmed is returned when a destructive action was declined.
	ErrNotConfirmed = errors.New("canvas: action was not confirmed")
	// ErrInvalidStyle is returned for style changes that fail validation.
	ErrInvalidStyle = errors.New("canvas: invalid style")
	// ErrStyleUnsupported is returned when styling a kind without a style menu.
	ErrStyleUnsupported = errors.New("canvas: widget kind has no style menu")
	// ErrInvalidImage is returned for logo or background images that are not usable.
	ErrInvalidImage = errors.New("canvas: image must be a data:image URI")
	// ErrUnknownPreset is returned for unknown background presets.
	ErrUnknownPreset = errors.New("canvas: unknown background preset")
	// ErrNoSession is returned when an operation targets a user without an active session.
	ErrNoSession = errors.New("canvas: no active session")
	// ErrExportFailed wraps any failure while producing an export artifact.
	ErrExportFailed = errors.New("canvas: export failed")
)

var errNoChartSource = errors.New("canvas: chart source not configured")
var errEmptyKey = errors.New("canvas: storage key is empty")
