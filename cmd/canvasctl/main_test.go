package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/stores/sqlitestore"
)

func sampleWidgets() []canvas.Widget {
	return []canvas.Widget{
		{
			InstanceID: "w1",
			Kind:       canvas.KindTextBox,
			Position:   canvas.Position{X: 10, Y: 20},
			Size:       canvas.Size{Width: 200, Height: 120},
			Content:    "Quarterly **review**",
		},
	}
}

func TestCatalogCommandFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&catalogCmd{Format: "yaml"}).run(&buf))
	assert.Contains(t, buf.String(), "header_height:")

	buf.Reset()
	require.NoError(t, (&catalogCmd{Format: "json"}).run(&buf))
	assert.Contains(t, buf.String(), `"headerHeight"`)
}

func TestCatalogCommandRejectsMissingFile(t *testing.T) {
	cmd := &catalogCmd{Path: filepath.Join(t.TempDir(), "missing.yaml"), Format: "yaml"}
	assert.Error(t, cmd.run(&bytes.Buffer{}))
}

func TestInspectCommand(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "layouts.db")
	store, err := sqlitestore.Open(path)
	require.NoError(t, err)
	raw, err := canvas.EncodeLayout(sampleWidgets())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, canvas.LayoutKey("u1"), raw))
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	require.NoError(t, (&inspectCmd{Database: path, User: "u1"}).run(ctx, &buf))

	var doc layoutDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "u1", doc.User)
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, "w1", doc.Widgets[0].InstanceID)
	assert.Equal(t, "textbox", doc.Widgets[0].Kind)

	err = (&inspectCmd{Database: path, User: "nobody"}).run(ctx, &buf)
	assert.ErrorContains(t, err, "no saved layout")
}

func TestExportCommandWritesDocument(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.json")
	raw, err := canvas.EncodeLayout(sampleWidgets())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(layout, raw, 0o600))

	out := filepath.Join(dir, "exports", "review.html")
	cmd := &exportCmd{Layout: layout, Title: "Q3 Review", Format: "html", Out: out, Width: 1200, Height: 800}
	path, err := cmd.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.Contains(html, "Q3 Review"))
	assert.Contains(t, html, `data-instance-id="w1"`)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "quarterly-review.png", outputName("Quarterly Review", "png"))
	assert.Equal(t, "dashboard.html", outputName("  ", "html"))
}
