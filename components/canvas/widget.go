package canvas

// WidgetPatch carries the fields to merge into an existing widget. Nil fields
// are left untouched. Identity and kind are never part of a patch.
type WidgetPatch struct {
	Position *Position   `json:"position,omitempty"`
	Size     *Size       `json:"size,omitempty"`
	Style    *StylePatch `json:"style,omitempty"`
	Content  *string     `json:"content,omitempty"`
	Src      *string     `json:"src,omitempty"`
}

// IsZero reports whether the patch would change nothing.
func (p WidgetPatch) IsZero() bool {
	return p.Position == nil && p.Size == nil && (p.Style == nil || p.Style.IsZero()) &&
		p.Content == nil && p.Src == nil
}

// StylePatch merges into WidgetStyle field by field. An empty BackgroundColor
// means "no color" and renders fully transparent.
type StylePatch struct {
	BackgroundColor   *string  `json:"backgroundColor,omitempty"`
	BackgroundOpacity *float64 `json:"backgroundOpacity,omitempty"`
	TextColor         *string  `json:"textColor,omitempty"`
	FontSize          *int     `json:"fontSize,omitempty"`
	FontFamily        *string  `json:"fontFamily,omitempty"`
	TextAlign         *string  `json:"textAlign,omitempty"`
}

// IsZero reports whether the style patch is empty.
func (p StylePatch) IsZero() bool {
	return p.BackgroundColor == nil && p.BackgroundOpacity == nil && p.TextColor == nil &&
		p.FontSize == nil && p.FontFamily == nil && p.TextAlign == nil
}

// touchesText reports whether the patch sets any text-only attribute.
func (p StylePatch) touchesText() bool {
	return p.TextColor != nil || p.FontSize != nil || p.FontFamily != nil || p.TextAlign != nil
}

// NoColor returns the patch that resets the background to transparent.
func NoColor() *StylePatch {
	empty := ""
	return &StylePatch{BackgroundColor: &empty}
}

// applyPatch merges the patch into w. Fields that do not apply to the kind are ignored.
func applyPatch(w *Widget, patch WidgetPatch) {
	if patch.Position != nil {
		w.Position = *patch.Position
	}
	if patch.Size != nil {
		w.Size = *patch.Size
	}
	if patch.Style != nil && w.Kind != KindLogo {
		if w.Style == nil {
			w.Style = &WidgetStyle{BackgroundOpacity: 1}
		}
		applyStylePatch(w.Kind, w.Style, *patch.Style)
	}
	if patch.Content != nil && w.Kind == KindTextBox {
		w.Content = *patch.Content
	}
	if patch.Src != nil && w.Kind == KindLogo {
		w.Src = *patch.Src
	}
}

func applyStylePatch(kind WidgetKind, style *WidgetStyle, patch StylePatch) {
	if patch.BackgroundColor != nil {
		style.BackgroundColor = *patch.BackgroundColor
	}
	if patch.BackgroundOpacity != nil {
		style.BackgroundOpacity = clampUnit(*patch.BackgroundOpacity)
	}
	if kind != KindTextBox {
		return
	}
	if patch.TextColor != nil {
		style.TextColor = *patch.TextColor
	}
	if patch.FontSize != nil {
		style.FontSize = *patch.FontSize
	}
	if patch.FontFamily != nil {
		style.FontFamily = *patch.FontFamily
	}
	if patch.TextAlign != nil {
		style.TextAlign = *patch.TextAlign
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// cloneWidget deep copies a widget so callers never share mutable state with the layout.
func cloneWidget(w Widget) Widget {
	out := w
	if w.Style != nil {
		style := *w.Style
		out.Style = &style
	}
	if w.Chart != nil {
		entry := cloneChartEntry(*w.Chart)
		out.Chart = &entry
	}
	return out
}

func cloneChartEntry(entry ChartEntry) ChartEntry {
	return ChartEntry{
		ID:         entry.ID,
		Name:       entry.Name,
		Definition: entry.Definition.Clone(),
	}
}

func cloneWidgets(widgets []Widget) []Widget {
	out := make([]Widget, len(widgets))
	for i, w := range widgets {
		out[i] = cloneWidget(w)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}
