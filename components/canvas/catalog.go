package canvas

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	catalogVersionV1 = "1"
	// CatalogVersion exposes the current catalog format version for tooling.
	CatalogVersion = catalogVersionV1

	defaultHeaderHeight = 32
	defaultEdgeMargin   = 8
)

// TextAlignments enumerates the accepted text box alignments.
var TextAlignments = []string{"left", "center", "right", "justify"}

// KindSpec captures the sizing rules and default style of a widget kind.
type KindSpec struct {
	Kind        WidgetKind   `yaml:"kind" json:"kind"`
	Label       string       `yaml:"label" json:"label"`
	DefaultSize Size         `yaml:"default_size" json:"defaultSize"`
	MinSize     Size         `yaml:"min_size" json:"minSize"`
	Style       *WidgetStyle `yaml:"style,omitempty" json:"style,omitempty"`
}

// Catalog describes every widget kind plus the shared interaction constants.
type Catalog struct {
	Version              string     `yaml:"version" json:"version"`
	HeaderHeight         float64    `yaml:"header_height" json:"headerHeight"`
	EdgeMargin           float64    `yaml:"edge_margin" json:"edgeMargin"`
	BlurOpacityThreshold float64    `yaml:"blur_opacity_threshold" json:"blurOpacityThreshold"`
	FontFamilies         []string   `yaml:"font_families" json:"fontFamilies"`
	FontSizes            []int      `yaml:"font_sizes" json:"fontSizes"`
	Kinds                []KindSpec `yaml:"kinds" json:"kinds"`
	Source               string     `yaml:"-" json:"-"`
}

// DefaultCatalog returns the built-in widget catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Version:              catalogVersionV1,
		HeaderHeight:         defaultHeaderHeight,
		EdgeMargin:           defaultEdgeMargin,
		BlurOpacityThreshold: 1,
		FontFamilies:         []string{"Inter", "Roboto", "Georgia", "Courier New", "Comic Sans MS"},
		FontSizes:            []int{12, 14, 16, 18, 20, 24, 32, 48},
		Kinds: []KindSpec{
			{
				Kind:        KindGraph,
				Label:       "Chart",
				DefaultSize: Size{Width: 400, Height: 300},
				MinSize:     Size{Width: 300, Height: 200},
				Style:       &WidgetStyle{BackgroundColor: "#ffffff", BackgroundOpacity: 1},
			},
			{
				Kind:        KindTextBox,
				Label:       "Text box",
				DefaultSize: Size{Width: 250, Height: 120},
				MinSize:     Size{Width: 150, Height: 60},
				Style: &WidgetStyle{
					BackgroundColor:   "#ffffff",
					BackgroundOpacity: 1,
					TextColor:         "#1f2937",
					FontSize:          16,
					FontFamily:        "Inter",
					TextAlign:         "left",
				},
			},
			{
				Kind:        KindLogo,
				Label:       "Logo",
				DefaultSize: Size{Width: 150, Height: 150},
				MinSize:     Size{Width: 80, Height: 80},
			},
		},
	}
}

// Spec returns the rules for kind.
func (c *Catalog) Spec(kind WidgetKind) (KindSpec, bool) {
	if c == nil {
		return KindSpec{}, false
	}
	for _, spec := range c.Kinds {
		if spec.Kind == kind {
			return spec, true
		}
	}
	return KindSpec{}, false
}

// MinSize returns the minimum box for kind, falling back to a 1x1 box.
func (c *Catalog) MinSize(kind WidgetKind) Size {
	if spec, ok := c.Spec(kind); ok {
		return spec.MinSize
	}
	return Size{Width: 1, Height: 1}
}

// DefaultSize returns the box assigned to new widgets of kind.
func (c *Catalog) DefaultSize(kind WidgetKind) Size {
	if spec, ok := c.Spec(kind); ok {
		return spec.DefaultSize
	}
	return c.MinSize(kind)
}

// DefaultStyle returns a fresh copy of the default style for kind, nil for kinds without style.
func (c *Catalog) DefaultStyle(kind WidgetKind) *WidgetStyle {
	spec, ok := c.Spec(kind)
	if !ok || spec.Style == nil {
		return nil
	}
	style := *spec.Style
	return &style
}

// HasFont reports whether family is part of the enumerated font list.
func (c *Catalog) HasFont(family string) bool {
	return slices.Contains(c.FontFamilies, family)
}

// Validate ensures the catalog is usable.
func (c *Catalog) Validate() error {
	if c.Version != catalogVersionV1 {
		return fmt.Errorf("canvas: unsupported catalog version %q", c.Version)
	}
	if c.HeaderHeight <= 0 {
		return errors.New("canvas: catalog header_height must be positive")
	}
	if c.EdgeMargin <= 0 {
		return errors.New("canvas: catalog edge_margin must be positive")
	}
	if len(c.FontFamilies) == 0 {
		return errors.New("canvas: catalog requires at least one font family")
	}
	seen := make(map[WidgetKind]struct{}, len(c.Kinds))
	for idx, spec := range c.Kinds {
		if !spec.Kind.Valid() {
			return fmt.Errorf("canvas: catalog kind at index %d is unknown: %q", idx, spec.Kind)
		}
		if _, dup := seen[spec.Kind]; dup {
			return fmt.Errorf("canvas: catalog duplicates kind %s", spec.Kind)
		}
		seen[spec.Kind] = struct{}{}
		if spec.MinSize.Width <= 0 || spec.MinSize.Height <= 0 {
			return fmt.Errorf("canvas: catalog kind %s needs a positive min_size", spec.Kind)
		}
		if spec.DefaultSize.Width < spec.MinSize.Width || spec.DefaultSize.Height < spec.MinSize.Height {
			return fmt.Errorf("canvas: catalog kind %s default_size is below min_size", spec.Kind)
		}
		if spec.Style != nil && spec.Style.FontFamily != "" && !slices.Contains(c.FontFamilies, spec.Style.FontFamily) {
			return fmt.Errorf("canvas: catalog kind %s uses unknown font %q", spec.Kind, spec.Style.FontFamily)
		}
	}
	for _, kind := range []WidgetKind{KindGraph, KindTextBox, KindLogo} {
		if _, ok := seen[kind]; !ok {
			return fmt.Errorf("canvas: catalog is missing kind %s", kind)
		}
	}
	return nil
}

// ReadCatalog loads a catalog file from disk.
func ReadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("canvas: open catalog %s: %w", path, err)
	}
	defer f.Close()
	cat, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("canvas: decode catalog %s: %w", path, err)
	}
	cat.Source = path
	return cat, nil
}

// DecodeCatalog reads a YAML catalog. Omitted sections keep their built-in defaults.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	cat := DefaultCatalog()
	if err := decoder.Decode(cat); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("canvas: catalog is empty")
		}
		return nil, fmt.Errorf("canvas: parse catalog: %w", err)
	}
	if cat.Version == "" {
		cat.Version = catalogVersionV1
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// EncodeCatalog writes the catalog as YAML.
func EncodeCatalog(w io.Writer, cat *Catalog) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(cat); err != nil {
		return fmt.Errorf("canvas: encode catalog: %w", err)
	}
	return nil
}
