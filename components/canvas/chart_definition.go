package canvas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const placeholderMarker = "canvas_placeholder"

// PlaceholderDefinition returns the inert definition substituted for charts
// that cannot be interpreted. reason is kept for diagnostics.
func PlaceholderDefinition(reason string) ChartDefinition {
	return ChartDefinition{
		Data: []map[string]any{},
		Layout: map[string]any{
			"title":           map[string]any{"text": "Chart unavailable"},
			placeholderMarker: true,
			"error":           reason,
		},
	}
}

// IsPlaceholder reports whether the definition is the error placeholder.
func (d ChartDefinition) IsPlaceholder() bool {
	marked, _ := d.Layout[placeholderMarker].(bool)
	return marked
}

// PlaceholderReason returns why the definition was replaced, if it was.
func (d ChartDefinition) PlaceholderReason() string {
	if !d.IsPlaceholder() {
		return ""
	}
	reason, _ := d.Layout["error"].(string)
	return reason
}

// Clone deep copies the definition.
func (d ChartDefinition) Clone() ChartDefinition {
	out := ChartDefinition{Layout: cloneMap(d.Layout)}
	if d.Data != nil {
		out.Data = make([]map[string]any, len(d.Data))
		for i, trace := range d.Data {
			out.Data[i] = cloneMap(trace)
		}
	}
	return out
}

// Title returns the layout title, accepting both the string and {text} forms.
func (d ChartDefinition) Title() string {
	return layoutTitle(d.Layout)
}

func layoutTitle(layout map[string]any) string {
	switch title := layout["title"].(type) {
	case string:
		return title
	case map[string]any:
		if text, ok := title["text"].(string); ok {
			return text
		}
	}
	return ""
}

// ParseChartDefinition interprets a raw chart definition that may arrive as a
// JSON object or as a JSON-encoded string. Anything unusable becomes the
// placeholder; this never fails.
func ParseChartDefinition(raw json.RawMessage) ChartDefinition {
	def, err := decodeChartDefinition(raw)
	if err != nil {
		return PlaceholderDefinition(err.Error())
	}
	return def
}

func decodeChartDefinition(raw json.RawMessage) (ChartDefinition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ChartDefinition{}, errors.New("chart definition is missing")
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return ChartDefinition{}, fmt.Errorf("decode chart definition string: %w", err)
		}
		raw = json.RawMessage(strings.TrimSpace(encoded))
		if len(raw) == 0 || raw[0] != '{' {
			return ChartDefinition{}, errors.New("chart definition string is not a JSON object")
		}
	}
	if raw[0] != '{' {
		return ChartDefinition{}, errors.New("chart definition must be an object")
	}
	var def ChartDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return ChartDefinition{}, fmt.Errorf("decode chart definition: %w", err)
	}
	if def.Data == nil {
		def.Data = []map[string]any{}
	}
	if def.Layout == nil {
		def.Layout = map[string]any{}
	}
	return def, nil
}

type chartEntryWire struct {
	ID         json.RawMessage `json:"id"`
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"chart_definition"`
}

// UnmarshalJSON accepts string or numeric ids and object or string-encoded
// definitions. A bad definition degrades to the placeholder instead of failing.
func (e *ChartEntry) UnmarshalJSON(data []byte) error {
	var wire chartEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("canvas: decode chart entry: %w", err)
	}
	id, err := normalizeEntryID(wire.ID)
	if err != nil {
		return err
	}
	e.ID = id
	e.Name = wire.Name
	e.Definition = ParseChartDefinition(wire.Definition)
	return nil
}

func normalizeEntryID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("canvas: chart entry id is required")
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("canvas: decode chart entry id: %w", err)
		}
		if id == "" {
			return "", errors.New("canvas: chart entry id is required")
		}
		return id, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", fmt.Errorf("canvas: chart entry id must be a string or number: %w", err)
	}
	if i, err := num.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return num.String(), nil
}
