package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator compiles JSON schemas once and validates payloads against them.
type SchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewSchemaValidator builds a validator backed by jsonschema v5.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks payload against the schema registered under name.
func (v *SchemaValidator) Validate(name string, schema map[string]any, payload any) error {
	compiled, err := v.schemaFor(name, schema)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("canvas: marshal payload for %s: %w", name, err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("canvas: normalize payload for %s: %w", name, err)
	}
	if err := compiled.Validate(normalized); err != nil {
		return fmt.Errorf("canvas: %s failed validation: %w", name, err)
	}
	return nil
}

func (v *SchemaValidator) schemaFor(name string, schema map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("canvas: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("canvas: load schema %s: %w", name, err)
	}
	compiled, err = compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("canvas: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

const hexColorPattern = "^(#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}))?$"

// StyleValidator checks style patches against the per-kind style menu.
type StyleValidator struct {
	catalog *Catalog
	schemas *SchemaValidator
}

// NewStyleValidator builds a validator for the catalog's style menus.
func NewStyleValidator(cat *Catalog) *StyleValidator {
	if cat == nil {
		cat = DefaultCatalog()
	}
	return &StyleValidator{catalog: cat, schemas: NewSchemaValidator()}
}

// Validate rejects patches that set fields outside the kind's menu or values
// outside the enumerations.
func (v *StyleValidator) Validate(kind WidgetKind, patch StylePatch) error {
	if kind == KindLogo {
		return ErrStyleUnsupported
	}
	if kind == KindGraph && patch.touchesText() {
		return fmt.Errorf("%w: graph widgets only support background styling", ErrInvalidStyle)
	}
	if err := v.schemas.Validate("style."+string(kind), v.styleSchema(kind), patch); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	return nil
}

func (v *StyleValidator) styleSchema(kind WidgetKind) map[string]any {
	props := map[string]any{
		"backgroundColor":   map[string]any{"type": "string", "pattern": hexColorPattern},
		"backgroundOpacity": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
	}
	if kind == KindTextBox {
		props["textColor"] = map[string]any{"type": "string", "pattern": hexColorPattern}
		props["fontSize"] = map[string]any{"type": "integer", "enum": v.catalog.FontSizes}
		props["fontFamily"] = map[string]any{"type": "string", "enum": v.catalog.FontFamilies}
		props["textAlign"] = map[string]any{"type": "string", "enum": TextAlignments}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// layoutSchema describes the persisted layout document.
func layoutSchema() map[string]any {
	number := map[string]any{"type": "number"}
	positive := map[string]any{"type": "number", "exclusiveMinimum": 0}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []string{"instanceId", "kind", "position", "size"},
			"properties": map[string]any{
				"instanceId": map[string]any{"type": "string", "minLength": 1},
				"kind":       map[string]any{"enum": []string{string(KindGraph), string(KindTextBox), string(KindLogo)}},
				"position": map[string]any{
					"type":       "object",
					"required":   []string{"x", "y"},
					"properties": map[string]any{"x": number, "y": number},
				},
				"size": map[string]any{
					"type":       "object",
					"required":   []string{"width", "height"},
					"properties": map[string]any{"width": positive, "height": positive},
				},
				"style":   map[string]any{"type": "object"},
				"chart":   map[string]any{"type": "object", "required": []string{"id"}},
				"content": map[string]any{"type": "string"},
				"src":     map[string]any{"type": "string"},
			},
		},
	}
}
