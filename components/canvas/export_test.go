package canvas

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHeightCoversLowestWidget(t *testing.T) {
	bounds := Bounds{Width: 1200, Height: 800}
	assert.Equal(t, 800.0, ContentHeight(bounds, nil))

	low := textBox("t1", "")
	low.Position = Position{X: 0, Y: 900}
	assert.Equal(t, 1020.0, ContentHeight(bounds, []Widget{savedGraph(), low}))
}

func TestExportDocumentRendersTemplate(t *testing.T) {
	renderer := &stubRenderer{}
	notices := NewNoticeRecorder()
	exporter, err := NewExporter(ExporterOptions{Renderer: renderer, Notifier: notices})
	require.NoError(t, err)

	low := textBox("t1", "footer")
	low.Position = Position{X: 0, Y: 900}
	artifact, err := exporter.Document(context.Background(), ExportInput{
		UserID:  "u1",
		Widgets: []Widget{savedGraph(), low},
		Bounds:  Bounds{Width: 1200, Height: 800},
	})
	require.NoError(t, err)

	assert.Equal(t, DocumentFilename, artifact.Filename)
	assert.Equal(t, "text/html; charset=utf-8", artifact.ContentType)
	assert.Equal(t, "canvas_export.html", renderer.lastTemplate)
	assert.Equal(t, "1020", renderer.lastPayload["content_height"])
	assert.Equal(t, "1200", renderer.lastPayload["width"])
	assert.Contains(t, renderer.lastPayload["stylesheet"], ".canvas-widget")
	assert.Contains(t, string(artifact.Data), `data-instance-id="t1"`)

	last, _ := notices.Last("u1")
	assert.Equal(t, NoticeSuccess, last.Level)
}

func TestExportFailureProducesNoArtifact(t *testing.T) {
	notices := NewNoticeRecorder()
	exporter, err := NewExporter(ExporterOptions{Renderer: &stubRenderer{err: errBoom}, Notifier: notices})
	require.NoError(t, err)

	artifact, err := exporter.Document(context.Background(), ExportInput{UserID: "u1", Bounds: Bounds{Width: 100, Height: 100}})
	require.ErrorIs(t, err, ErrExportFailed)
	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, artifact)

	last, _ := notices.Last("u1")
	assert.Equal(t, NoticeError, last.Level)
	assert.Equal(t, CodeExportFailed, last.Code)
}

func TestExportImageSkipsUndecodableLogo(t *testing.T) {
	telemetry := &recordingTelemetry{}
	exporter, err := NewExporter(ExporterOptions{Renderer: &stubRenderer{}, Telemetry: telemetry})
	require.NoError(t, err)

	broken := Widget{InstanceID: "l1", Kind: KindLogo, Position: Position{X: 500, Y: 20}, Size: Size{Width: 150, Height: 150}, Src: "data:image/png;base64,bm90IGFuIGltYWdl"}
	good := Widget{InstanceID: "l2", Kind: KindLogo, Position: Position{X: 700, Y: 20}, Size: Size{Width: 80, Height: 80}, Src: onePixelPNG}
	pie := Widget{
		InstanceID: "g2",
		Kind:       KindGraph,
		Position:   Position{X: 0, Y: 400},
		Size:       Size{Width: 300, Height: 200},
		Style:      &WidgetStyle{BackgroundColor: "#ffffff", BackgroundOpacity: 0.5},
		Chart: &ChartEntry{ID: "p", Name: "Share", Definition: ChartDefinition{
			Data: []map[string]any{{"type": "pie", "labels": []any{"a", "b"}, "values": []any{1.0, 3.0}}},
		}},
	}
	artifact, err := exporter.Image(context.Background(), ExportInput{
		UserID:     "u1",
		Widgets:    []Widget{savedGraph(), textBox("t1", "Quarterly summary"), broken, good, pie},
		Bounds:     Bounds{Width: 1000, Height: 700},
		Background: Background{Kind: BackgroundPreset, Preset: "dots"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImageFilename, artifact.Filename)
	assert.Equal(t, "image/png", artifact.ContentType)

	img, err := png.Decode(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 700, img.Bounds().Dy())
	assert.True(t, telemetry.has("canvas.export.image_skipped"))
}

func TestDecodeDataImage(t *testing.T) {
	img, err := decodeDataImage(onePixelPNG)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())

	_, err = decodeDataImage("data:image/svg+xml,<svg/>")
	require.ErrorIs(t, err, ErrInvalidImage)
	_, err = decodeDataImage("https://example.com/a.png")
	require.ErrorIs(t, err, ErrInvalidImage)
}
