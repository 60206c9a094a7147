package commands

import (
	"context"

	canvas "github.com/goliatone/go-canvas/components/canvas"
)

// Telemetry is the canvas event sink, so one ZapTelemetry can serve both the
// service and its commands.
type Telemetry = canvas.Telemetry

type discardTelemetry struct{}

func (discardTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry{}
	}
	return t
}
