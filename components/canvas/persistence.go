package canvas

import (
	"context"
	"encoding/json"
	"fmt"
)

const layoutSchemaName = "canvas.layout"

// ClearPrompt is the question shown before a layout is cleared.
const ClearPrompt = "Clear the dashboard? This removes every widget and the saved layout."

// Persister saves and restores widget collections through a LayoutStore.
// Persistence is always explicit; nothing here runs on a timer.
type Persister struct {
	store     LayoutStore
	schemas   *SchemaValidator
	notifier  Notifier
	telemetry Telemetry
}

// NewPersister builds a persister. A nil store falls back to memory.
func NewPersister(store LayoutStore, notifier Notifier, telemetry Telemetry) *Persister {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Persister{
		store:     store,
		schemas:   NewSchemaValidator(),
		notifier:  normalizeNotifier(notifier),
		telemetry: normalizeTelemetry(telemetry),
	}
}

// EncodeLayout serializes widgets into the stored document format.
func EncodeLayout(widgets []Widget) ([]byte, error) {
	if widgets == nil {
		widgets = []Widget{}
	}
	return json.Marshal(widgets)
}

// DecodeLayout parses and validates a stored document.
func (p *Persister) DecodeLayout(raw []byte) ([]Widget, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("canvas: decode layout: %w", err)
	}
	if err := p.schemas.Validate(layoutSchemaName, layoutSchema(), doc); err != nil {
		return nil, err
	}
	var widgets []Widget
	if err := json.Unmarshal(raw, &widgets); err != nil {
		return nil, fmt.Errorf("canvas: decode layout: %w", err)
	}
	check := NewLayout()
	if err := check.Replace(widgets); err != nil {
		return nil, err
	}
	return check.Widgets(), nil
}

// Save writes the widgets under the user's key. Failures are reported both
// as an error notice and as the returned error.
func (p *Persister) Save(ctx context.Context, userID string, widgets []Widget) error {
	if userID == "" {
		return ErrMissingUser
	}
	data, err := EncodeLayout(widgets)
	if err == nil {
		err = p.store.Put(ctx, LayoutKey(userID), data)
	}
	if err != nil {
		p.telemetry.Record(ctx, "canvas.layout.save_error", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		p.notifier.Notify(ctx, userID, Notice{Level: NoticeError, Message: "Could not save the dashboard", Code: CodeLayoutSaveFailed})
		return fmt.Errorf("canvas: save layout: %w", err)
	}
	p.telemetry.Record(ctx, "canvas.layout.saved", map[string]any{
		"user_id": userID,
		"widgets": len(widgets),
	})
	p.notifier.Notify(ctx, userID, Notice{Level: NoticeSuccess, Message: "Dashboard saved", Code: CodeLayoutSaved})
	return nil
}

// Load returns the stored widgets for userID. Missing, unreadable or
// malformed documents yield an empty collection without notifying.
func (p *Persister) Load(ctx context.Context, userID string) []Widget {
	if userID == "" {
		return nil
	}
	raw, ok, err := p.store.Get(ctx, LayoutKey(userID))
	if err != nil {
		p.telemetry.Record(ctx, "canvas.layout.load_error", map[string]any{"user_id": userID, "error": err.Error()})
		return nil
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	widgets, err := p.DecodeLayout(raw)
	if err != nil {
		p.telemetry.Record(ctx, "canvas.layout.load_error", map[string]any{"user_id": userID, "error": err.Error()})
		return nil
	}
	p.telemetry.Record(ctx, "canvas.layout.loaded", map[string]any{"user_id": userID, "widgets": len(widgets)})
	return widgets
}

// Clear deletes the stored document once confirmer agrees, then empties
// layout. A declined confirmation or a failed delete leaves layout untouched.
func (p *Persister) Clear(ctx context.Context, userID string, layout *Layout, confirmer Confirmer) error {
	if userID == "" {
		return ErrMissingUser
	}
	if confirmer == nil || !confirmer.Confirm(ctx, ClearPrompt) {
		return ErrNotConfirmed
	}
	if err := p.store.Delete(ctx, LayoutKey(userID)); err != nil {
		p.telemetry.Record(ctx, "canvas.layout.clear_error", map[string]any{"user_id": userID, "error": err.Error()})
		p.notifier.Notify(ctx, userID, Notice{Level: NoticeError, Message: "Could not remove the saved dashboard", Code: CodeLayoutSaveFailed})
		return fmt.Errorf("canvas: clear layout: %w", err)
	}
	layout.Reset()
	p.telemetry.Record(ctx, "canvas.layout.cleared", map[string]any{"user_id": userID})
	p.notifier.Notify(ctx, userID, Notice{Level: NoticeInfo, Message: "Dashboard cleared", Code: CodeLayoutCleared})
	return nil
}
