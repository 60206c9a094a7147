package canvas

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// StyleControl names the input used for a style menu field.
type StyleControl string

const (
	ControlColor  StyleControl = "color"
	ControlRange  StyleControl = "range"
	ControlSelect StyleControl = "select"
	ControlReset  StyleControl = "reset"
)

// StyleField describes a single entry of a widget style menu.
type StyleField struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Control StyleControl `json:"control"`
	Options []string     `json:"options,omitempty"`
	Min     float64      `json:"min,omitempty"`
	Max     float64      `json:"max,omitempty"`
	Step    float64      `json:"step,omitempty"`
}

// StyleMenu lists the style fields a widget kind exposes.
type StyleMenu struct {
	Kind   WidgetKind   `json:"kind"`
	Fields []StyleField `json:"fields"`
}

// StyleMenuFor returns the menu for kind. Logo widgets have none.
func StyleMenuFor(cat *Catalog, kind WidgetKind) (StyleMenu, bool) {
	background := []StyleField{
		{Name: "backgroundColor", Label: "Background", Control: ControlColor},
		{Name: "backgroundOpacity", Label: "Opacity", Control: ControlRange, Min: 0, Max: 1, Step: 0.05},
		{Name: "noColor", Label: "No color", Control: ControlReset},
	}
	switch kind {
	case KindGraph:
		return StyleMenu{Kind: kind, Fields: background}, true
	case KindTextBox:
		sizes := make([]string, len(cat.FontSizes))
		for i, size := range cat.FontSizes {
			sizes[i] = strconv.Itoa(size)
		}
		fields := []StyleField{
			{Name: "textColor", Label: "Text color", Control: ControlColor},
			{Name: "fontSize", Label: "Font size", Control: ControlSelect, Options: sizes},
			{Name: "fontFamily", Label: "Font", Control: ControlSelect, Options: append([]string(nil), cat.FontFamilies...)},
			{Name: "textAlign", Label: "Alignment", Control: ControlSelect, Options: append([]string(nil), TextAlignments...)},
		}
		return StyleMenu{Kind: kind, Fields: append(fields, background...)}, true
	}
	return StyleMenu{Kind: kind}, false
}

// StyleCSS renders the inline CSS for a widget frame. blurred reports whether
// the translucency treatment applies.
func StyleCSS(kind WidgetKind, style *WidgetStyle, blurThreshold float64) (css string, blurred bool) {
	if style == nil || kind == KindLogo {
		return "background-color: transparent;", false
	}
	var b strings.Builder
	bg, translucent := backgroundColor(style.BackgroundColor, style.BackgroundOpacity)
	fmt.Fprintf(&b, "background-color: %s;", bg)
	if translucent && style.BackgroundOpacity < blurThreshold {
		b.WriteString(" backdrop-filter: blur(8px);")
		blurred = true
	}
	if kind == KindTextBox {
		if r, g, bl, ok := parseHexColor(style.TextColor); ok {
			fmt.Fprintf(&b, " color: rgb(%d, %d, %d);", r, g, bl)
		}
		if style.FontSize > 0 {
			fmt.Fprintf(&b, " font-size: %dpx;", style.FontSize)
		}
		if family := cssIdent(style.FontFamily); family != "" {
			fmt.Fprintf(&b, " font-family: '%s', sans-serif;", family)
		}
		if slices.Contains(TextAlignments, style.TextAlign) {
			fmt.Fprintf(&b, " text-align: %s;", style.TextAlign)
		}
	}
	return b.String(), blurred
}

// cssIdent keeps only the characters a font family name needs.
func cssIdent(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			return r
		}
		return -1
	}, strings.TrimSpace(v))
}

// backgroundColor converts a hex color plus opacity to an rgba() value. An
// empty or unparseable color is fully transparent.
func backgroundColor(hex string, opacity float64) (string, bool) {
	r, g, bl, ok := parseHexColor(hex)
	if !ok {
		return "transparent", false
	}
	opacity = clampUnit(opacity)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, bl, strconv.FormatFloat(opacity, 'f', -1, 64)), opacity < 1
}

func parseHexColor(hex string) (r, g, b uint8, ok bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
