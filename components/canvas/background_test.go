package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundPresets(t *testing.T) {
	presets := BackgroundPresets()
	require.NotEmpty(t, presets)
	assert.Equal(t, "dots", presets[0].Name)

	bg, err := PresetBackground("grid")
	require.NoError(t, err)
	assert.Contains(t, bg.CSS(), "background-size: 24px 24px;")

	_, err = PresetBackground("plaid")
	require.ErrorIs(t, err, ErrUnknownPreset)
}

func TestImageBackground(t *testing.T) {
	bg, err := ImageBackground("https://cdn.example.com/bg.jpg")
	require.NoError(t, err)
	assert.Equal(t, BackgroundImage, bg.Kind)
	assert.Contains(t, bg.CSS(), `background-image: url("https://cdn.example.com/bg.jpg");`)

	_, err = ImageBackground(onePixelPNG)
	require.NoError(t, err)

	for _, ref := range []string{"", "javascript:alert(1)", "/relative.png", "ftp://example.com/a.png"} {
		_, err := ImageBackground(ref)
		assert.ErrorIs(t, err, ErrInvalidImage, ref)
	}
}
