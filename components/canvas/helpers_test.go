package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

type stubChartSource struct {
	mu      sync.Mutex
	entries []ChartEntry
	err     error
	calls   int
}

func (s *stubChartSource) FetchCharts(_ context.Context, _ string) ([]ChartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (g *sequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("w%d", g.next)
}

type failingStore struct {
	*MemoryStore
	putErr    error
	deleteErr error
}

func (s *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

// gatedStore holds every Get until release is closed.
type gatedStore struct {
	*MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(base *MemoryStore) *gatedStore {
	return &gatedStore{MemoryStore: base, entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.MemoryStore.Get(ctx, key)
}

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	calls        int
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.calls++
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if r.err != nil {
		return "", r.err
	}
	body := "<html></html>"
	if payload, ok := data.(map[string]any); ok {
		if surface, ok := payload["surface"].(string); ok {
			body = "<html>" + surface + "</html>"
		}
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte(body))
	}
	return body, nil
}

type recordingHook struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (h *recordingHook) CanvasUpdated(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Reason
	}
	return out
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (t *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *recordingTelemetry) has(event string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.events {
		if e == event {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")

func revenueEntry() ChartEntry {
	return ChartEntry{
		ID:   "c1",
		Name: "Q3 Revenue",
		Definition: ChartDefinition{
			Data: []map[string]any{
				{"type": "bar", "x": []any{"Jul", "Aug", "Sep"}, "y": []any{120.0, 150.0, 90.0}, "name": "Revenue"},
			},
			Layout: map[string]any{"title": map[string]any{"text": "Q3 Revenue"}},
		},
	}
}

func lineEntry(id, name string) ChartEntry {
	return ChartEntry{
		ID:   id,
		Name: name,
		Definition: ChartDefinition{
			Data:   []map[string]any{{"type": "scatter", "mode": "lines", "y": []any{1.0, 3.0, 2.0}}},
			Layout: map[string]any{"title": name},
		},
	}
}

// onePixelPNG is a valid 1x1 PNG.
const onePixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
