package chartsource

import (
	"context"
	"sync"

	canvas "github.com/goliatone/go-canvas/components/canvas"
)

// MockClient serves chart fixtures from memory for tests and local demos.
type MockClient struct {
	mu       sync.RWMutex
	fallback []canvas.ChartEntry
	perUser  map[string][]canvas.ChartEntry
	err      error
}

var _ canvas.ChartSource = (*MockClient)(nil)

// NewMockClient returns a client serving entries to every user.
func NewMockClient(entries []canvas.ChartEntry) *MockClient {
	return &MockClient{fallback: cloneEntries(entries), perUser: map[string][]canvas.ChartEntry{}}
}

// SetUserCharts overrides the fixtures of one user.
func (c *MockClient) SetUserCharts(userID string, entries []canvas.ChartEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perUser[userID] = cloneEntries(entries)
}

// FailWith makes every fetch fail with err until reset with nil.
func (c *MockClient) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// FetchCharts returns the fixtures for userID.
func (c *MockClient) FetchCharts(_ context.Context, userID string) ([]canvas.ChartEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	if entries, ok := c.perUser[userID]; ok {
		return cloneEntries(entries), nil
	}
	return cloneEntries(c.fallback), nil
}

func cloneEntries(entries []canvas.ChartEntry) []canvas.ChartEntry {
	out := make([]canvas.ChartEntry, len(entries))
	for i, entry := range entries {
		out[i] = canvas.ChartEntry{ID: entry.ID, Name: entry.Name, Definition: entry.Definition.Clone()}
	}
	return out
}

// DemoCharts returns a small set of figures used by the demo daemon.
func DemoCharts() []canvas.ChartEntry {
	return []canvas.ChartEntry{
		{
			ID:   "revenue-q3",
			Name: "Q3 Revenue",
			Definition: canvas.ChartDefinition{
				Data: []map[string]any{{
					"type": "bar",
					"name": "Revenue",
					"x":    []any{"Jul", "Aug", "Sep"},
					"y":    []any{120.0, 135.0, 160.0},
				}},
				Layout: map[string]any{"title": map[string]any{"text": "Q3 Revenue"}},
			},
		},
		{
			ID:   "signups",
			Name: "Weekly Signups",
			Definition: canvas.ChartDefinition{
				Data: []map[string]any{{
					"type": "scatter",
					"mode": "lines",
					"name": "Signups",
					"x":    []any{"W1", "W2", "W3", "W4"},
					"y":    []any{42.0, 51.0, 48.0, 63.0},
				}},
				Layout: map[string]any{"title": "Weekly Signups"},
			},
		},
		{
			ID:   "channels",
			Name: "Traffic by Channel",
			Definition: canvas.ChartDefinition{
				Data: []map[string]any{{
					"type":   "pie",
					"labels": []any{"Organic", "Paid", "Referral"},
					"values": []any{55.0, 30.0, 15.0},
				}},
				Layout: map[string]any{"title": "Traffic by Channel"},
			},
		},
	}
}
