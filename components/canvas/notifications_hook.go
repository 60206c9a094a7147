package canvas

import "context"

// NotificationsClient defines the minimal interface needed from an external
// notifications service.
type NotificationsClient interface {
	PublishCanvasEvent(ctx context.Context, channel string, event Event) error
}

// NotificationsHook forwards canvas events to an external notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
}

// CanvasUpdated publishes events to the configured notifications client.
func (h *NotificationsHook) CanvasUpdated(ctx context.Context, event Event) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.PublishCanvasEvent(ctx, h.Channel, event)
}

// MultiHook invokes every hook and returns the first error.
type MultiHook []EventHook

// CanvasUpdated fans event out.
func (m MultiHook) CanvasUpdated(ctx context.Context, event Event) error {
	var first error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.CanvasUpdated(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
