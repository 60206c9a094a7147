package canvas

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Telemetry records canvas events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry writes telemetry events as structured log entries.
type ZapTelemetry struct {
	Logger *zap.Logger
}

// NewZapTelemetry wraps logger. A nil logger yields a no-op logger.
func NewZapTelemetry(logger *zap.Logger) *ZapTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTelemetry{Logger: logger}
}

// Record logs event with one field per payload key. Events ending in
// "_error" or "failed" are logged at warn level.
func (t *ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	if t == nil || t.Logger == nil {
		return
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys)+1)
	fields = append(fields, zap.String("event", event))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, payload[k]))
	}
	if isFailureEvent(event) {
		t.Logger.Warn("canvas event", fields...)
		return
	}
	t.Logger.Info("canvas event", fields...)
}

func isFailureEvent(event string) bool {
	return strings.HasSuffix(event, "_error") || strings.HasSuffix(event, "failed")
}
