package canvas

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	cat := DefaultCatalog()
	require.NoError(t, cat.Validate())
	assert.Equal(t, Size{Width: 300, Height: 200}, cat.MinSize(KindGraph))
	assert.Equal(t, Size{Width: 150, Height: 60}, cat.MinSize(KindTextBox))
	assert.Equal(t, Size{Width: 80, Height: 80}, cat.MinSize(KindLogo))
	assert.Nil(t, cat.DefaultStyle(KindLogo))

	style := cat.DefaultStyle(KindTextBox)
	style.FontSize = 48
	assert.Equal(t, 16, cat.DefaultStyle(KindTextBox).FontSize)
}

func TestDecodeCatalogOverridesDefaults(t *testing.T) {
	const payload = `
version: "1"
header_height: 40
font_families: ["Inter", "Roboto"]
kinds:
  - kind: graph
    label: Chart
    default_size: {width: 480, height: 320}
    min_size: {width: 320, height: 240}
  - kind: textbox
    label: Text
    default_size: {width: 250, height: 120}
    min_size: {width: 150, height: 60}
  - kind: logo
    label: Logo
    default_size: {width: 150, height: 150}
    min_size: {width: 80, height: 80}
`
	cat, err := DecodeCatalog(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 40.0, cat.HeaderHeight)
	assert.Equal(t, 8.0, cat.EdgeMargin)
	assert.Equal(t, Size{Width: 480, Height: 320}, cat.DefaultSize(KindGraph))
	assert.False(t, cat.HasFont("Georgia"))
}

func TestDecodeCatalogRejectsUnknownFields(t *testing.T) {
	_, err := DecodeCatalog(strings.NewReader("header_hieght: 12\n"))
	require.Error(t, err)

	_, err = DecodeCatalog(strings.NewReader(""))
	require.Error(t, err)

	_, err = DecodeCatalog(strings.NewReader("kinds:\n  - kind: graph\n    default_size: {width: 10, height: 10}\n    min_size: {width: 20, height: 20}\n"))
	require.Error(t, err)
}

func TestCatalogFileRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCatalog(&buf, DefaultCatalog()))

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	cat, err := ReadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, path, cat.Source)
	assert.Equal(t, DefaultCatalog().Kinds, cat.Kinds)
}
