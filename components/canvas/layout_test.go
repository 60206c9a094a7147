package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textBox(id, content string) Widget {
	return Widget{
		InstanceID: id,
		Kind:       KindTextBox,
		Position:   Position{X: 10, Y: 10},
		Size:       Size{Width: 250, Height: 120},
		Style:      DefaultCatalog().DefaultStyle(KindTextBox),
		Content:    content,
	}
}

func TestLayoutAddRejectsDuplicateInstance(t *testing.T) {
	layout := NewLayout()
	require.NoError(t, layout.Add(textBox("a", "hello")))

	err := layout.Add(textBox("a", "again"))
	require.ErrorIs(t, err, ErrDuplicateInstance)
	assert.Equal(t, 1, layout.Len())

	require.Error(t, layout.Add(Widget{Kind: KindLogo}))
	require.Error(t, layout.Add(Widget{InstanceID: "b", Kind: "sticker"}))
}

func TestLayoutUpdateMissingIsNoop(t *testing.T) {
	layout := NewLayout()
	require.NoError(t, layout.Add(textBox("a", "hello")))
	before := layout.Widgets()

	content := "changed"
	_, ok := layout.Update("missing", WidgetPatch{Content: &content})

	assert.False(t, ok)
	assert.Equal(t, before, layout.Widgets())
}

func TestLayoutUpdateMergesStyleFields(t *testing.T) {
	layout := NewLayout()
	require.NoError(t, layout.Add(textBox("a", "hello")))

	size := 24
	updated, ok := layout.Update("a", WidgetPatch{Style: &StylePatch{FontSize: &size}})
	require.True(t, ok)
	assert.Equal(t, 24, updated.Style.FontSize)
	assert.Equal(t, "Inter", updated.Style.FontFamily)
	assert.Equal(t, "a", updated.InstanceID)
	assert.Equal(t, KindTextBox, updated.Kind)

	updated, ok = layout.Update("a", WidgetPatch{Style: NoColor()})
	require.True(t, ok)
	assert.Empty(t, updated.Style.BackgroundColor)
}

func TestLayoutPatchIgnoresFieldsOfOtherKinds(t *testing.T) {
	layout := NewLayout()
	require.NoError(t, layout.Add(Widget{InstanceID: "logo", Kind: KindLogo, Size: Size{Width: 150, Height: 150}, Src: onePixelPNG}))

	content := "text"
	color := "#ff0000"
	updated, ok := layout.Update("logo", WidgetPatch{Content: &content, Style: &StylePatch{BackgroundColor: &color}})
	require.True(t, ok)
	assert.Empty(t, updated.Content)
	assert.Nil(t, updated.Style)
}

func TestLayoutWidgetsReturnsCopies(t *testing.T) {
	layout := NewLayout()
	require.NoError(t, layout.Add(textBox("a", "hello")))

	widgets := layout.Widgets()
	widgets[0].Content = "mutated"
	widgets[0].Style.FontSize = 99

	stored, ok := layout.Find("a")
	require.True(t, ok)
	assert.Equal(t, "hello", stored.Content)
	assert.Equal(t, 16, stored.Style.FontSize)
}

func TestLayoutRemoveAndReplace(t *testing.T) {
	layout := NewLayout()
	require.NoError(t, layout.Add(textBox("a", "one")))
	require.NoError(t, layout.Add(textBox("b", "two")))

	assert.True(t, layout.Remove("a"))
	assert.False(t, layout.Remove("a"))
	assert.Equal(t, 1, layout.Len())

	err := layout.Replace([]Widget{textBox("x", ""), textBox("x", "")})
	require.ErrorIs(t, err, ErrDuplicateInstance)
	assert.Equal(t, 1, layout.Len())

	require.NoError(t, layout.Replace([]Widget{textBox("x", ""), textBox("y", "")}))
	ids := []string{}
	for _, w := range layout.Widgets() {
		ids = append(ids, w.InstanceID)
	}
	assert.Equal(t, []string{"x", "y"}, ids)
}
