package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// RasterInput carries everything a rasterizer may use to paint the surface.
type RasterInput struct {
	Document      string
	Widgets       []Widget
	Bounds        Bounds
	ContentHeight float64
	HeaderHeight  float64
	Background    Background
}

// Rasterizer paints a dashboard into PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, input RasterInput) ([]byte, error)
}

var errEmptyRaster = errors.New("canvas: nothing to rasterize")

// chartPalette mirrors the first colors of the echarts default theme.
var chartPalette = []string{"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de", "#3ba272", "#fc8452", "#9a60b4"}

// GGRasterizer paints an approximation of the surface with fogleman/gg.
// Charts are drawn as simple marks; images that cannot be decoded are
// replaced by a placeholder instead of failing the capture.
type GGRasterizer struct {
	Telemetry Telemetry
}

// NewGGRasterizer builds the default rasterizer.
func NewGGRasterizer(telemetry Telemetry) *GGRasterizer {
	return &GGRasterizer{Telemetry: normalizeTelemetry(telemetry)}
}

// Rasterize paints input and encodes it as PNG.
func (r *GGRasterizer) Rasterize(ctx context.Context, input RasterInput) ([]byte, error) {
	width, height := rasterExtent(input)
	if width <= 0 || height <= 0 {
		return nil, errEmptyRaster
	}
	header := input.HeaderHeight
	if header <= 0 {
		header = defaultHeaderHeight
	}
	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)
	paintBackground(dc, input.Background, width, height)
	for _, w := range input.Widgets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.paintWidget(ctx, dc, w, header)
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("canvas: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func rasterExtent(input RasterInput) (int, int) {
	width := input.Bounds.Width
	height := math.Max(input.ContentHeight, input.Bounds.Height)
	for _, w := range input.Widgets {
		width = math.Max(width, w.Rect().Right())
		height = math.Max(height, w.Rect().Bottom())
	}
	return int(math.Ceil(width)), int(math.Ceil(height))
}

func paintBackground(dc *gg.Context, bg Background, width, height int) {
	dc.SetHexColor("#ffffff")
	dc.Clear()
	if bg.Kind != BackgroundPreset {
		return
	}
	tokens := bg.Tokens()
	if fill, ok := tokens["background-color"]; ok {
		dc.SetHexColor(fill)
		dc.DrawRectangle(0, 0, float64(width), float64(height))
		dc.Fill()
	}
	switch bg.Preset {
	case "grid":
		dc.SetHexColor("#e5e7eb")
		dc.SetLineWidth(1)
		for x := 0; x < width; x += 24 {
			dc.DrawLine(float64(x), 0, float64(x), float64(height))
		}
		for y := 0; y < height; y += 24 {
			dc.DrawLine(0, float64(y), float64(width), float64(y))
		}
		dc.Stroke()
	case "dots":
		dc.SetHexColor("#cbd5e1")
		for x := 8; x < width; x += 16 {
			for y := 8; y < height; y += 16 {
				dc.DrawCircle(float64(x), float64(y), 1)
			}
		}
		dc.Fill()
	case "gradient-dusk", "gradient-ocean":
		from, to := "#312e81", "#9d174d"
		if bg.Preset == "gradient-ocean" {
			from, to = "#0ea5e9", "#1e3a8a"
		}
		grad := gg.NewLinearGradient(0, 0, float64(width), float64(height))
		grad.AddColorStop(0, hexColor(from))
		grad.AddColorStop(1, hexColor(to))
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(width), float64(height))
		dc.Fill()
	}
}

func (r *GGRasterizer) paintWidget(ctx context.Context, dc *gg.Context, w Widget, header float64) {
	x, y, width, height := w.Position.X, w.Position.Y, w.Size.Width, w.Size.Height
	if w.Kind != KindLogo {
		fill := "#ffffff"
		alpha := 1.0
		if w.Style != nil {
			fill = w.Style.BackgroundColor
			alpha = clampUnit(w.Style.BackgroundOpacity)
		}
		if cr, cg, cb, ok := parseHexColor(fill); ok {
			dc.SetRGBA255(int(cr), int(cg), int(cb), int(alpha*255))
			dc.DrawRoundedRectangle(x, y, width, height, 6)
			dc.Fill()
		}
		dc.SetHexColor("#e5e7eb")
		dc.SetLineWidth(1)
		dc.DrawRoundedRectangle(x, y, width, height, 6)
		dc.Stroke()
		dc.SetHexColor("#475569")
		dc.DrawStringAnchored(widgetTitle(w), x+8, y+header/2, 0, 0.35)
	}
	content := Rect{X: x, Y: y + header, Width: width, Height: height - header}
	if w.Kind == KindLogo {
		content = w.Rect()
	}
	if content.Width <= 0 || content.Height <= 0 {
		return
	}
	switch w.Kind {
	case KindGraph:
		if w.Chart == nil || w.Chart.Definition.IsPlaceholder() || !paintChart(dc, w.Chart.Definition, content) {
			paintPlaceholder(dc, content, "Chart unavailable")
		}
	case KindTextBox:
		paintText(dc, w, content)
	case KindLogo:
		img, err := decodeDataImage(w.Src)
		if err != nil {
			normalizeTelemetry(r.Telemetry).Record(ctx, "canvas.export.image_skipped", map[string]any{
				"instance_id": w.InstanceID,
				"error":       err.Error(),
			})
			paintPlaceholder(dc, content, "Image unavailable")
			return
		}
		paintImage(dc, img, content)
	}
}

func paintText(dc *gg.Context, w Widget, box Rect) {
	textColor := "#1f2937"
	align := gg.AlignLeft
	if w.Style != nil {
		if _, _, _, ok := parseHexColor(w.Style.TextColor); ok {
			textColor = w.Style.TextColor
		}
		switch w.Style.TextAlign {
		case "center":
			align = gg.AlignCenter
		case "right":
			align = gg.AlignRight
		}
	}
	dc.SetHexColor(textColor)
	text := strings.TrimSpace(w.Content)
	dc.Push()
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Clip()
	dc.DrawStringWrapped(text, box.X+8, box.Y+8, 0, 0, box.Width-16, 1.4, align)
	dc.ResetClip()
	dc.Pop()
}

func paintPlaceholder(dc *gg.Context, box Rect, label string) {
	dc.SetHexColor("#fef2f2")
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Fill()
	dc.SetHexColor("#b91c1c")
	dc.DrawStringAnchored(label, box.X+box.Width/2, box.Y+box.Height/2, 0.5, 0.5)
}

func paintImage(dc *gg.Context, img image.Image, box Rect) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}
	scale := math.Min(box.Width/float64(bounds.Dx()), box.Height/float64(bounds.Dy()))
	drawW, drawH := float64(bounds.Dx())*scale, float64(bounds.Dy())*scale
	dc.Push()
	dc.Translate(box.X+(box.Width-drawW)/2, box.Y+(box.Height-drawH)/2)
	dc.Scale(scale, scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

// paintChart draws the first trace kind of def inside box. It reports false
// when the definition has nothing drawable.
func paintChart(dc *gg.Context, def ChartDefinition, box Rect) bool {
	if len(def.Data) == 0 {
		return false
	}
	pad := 16.0
	plot := Rect{X: box.X + pad, Y: box.Y + pad, Width: box.Width - 2*pad, Height: box.Height - 2*pad}
	if plot.Width <= 0 || plot.Height <= 0 {
		return false
	}
	kind := kindOfTrace(def.Data[0])
	traces := sameKind(def.Data, kind)
	switch kind {
	case tracePie:
		return paintPie(dc, traces[0], plot)
	case traceBar, traceLine, traceScatter:
		series := make([][]float64, 0, len(traces))
		maxV, minV := math.Inf(-1), 0.0
		for _, trace := range traces {
			values := numericValues(trace["y"])
			for _, v := range values {
				maxV = math.Max(maxV, v)
				minV = math.Min(minV, v)
			}
			series = append(series, values)
		}
		if math.IsInf(maxV, -1) || maxV == minV {
			return false
		}
		dc.SetHexColor("#cbd5e1")
		dc.SetLineWidth(1)
		dc.DrawLine(plot.X, plot.Bottom(), plot.Right(), plot.Bottom())
		dc.Stroke()
		scaleY := func(v float64) float64 {
			return plot.Bottom() - (v-minV)/(maxV-minV)*plot.Height
		}
		for i, values := range series {
			dc.SetHexColor(chartPalette[i%len(chartPalette)])
			if len(values) == 0 {
				continue
			}
			step := plot.Width / float64(len(values))
			for j, v := range values {
				cx := plot.X + step*float64(j) + step/2
				switch kind {
				case traceBar:
					barW := step * 0.8 / float64(len(series))
					bx := plot.X + step*float64(j) + step*0.1 + barW*float64(i)
					dc.DrawRectangle(bx, scaleY(v), barW, scaleY(minV)-scaleY(v))
					dc.Fill()
				case traceScatter:
					dc.DrawCircle(cx, scaleY(v), 3)
					dc.Fill()
				case traceLine:
					if j == 0 {
						dc.MoveTo(cx, scaleY(v))
					} else {
						dc.LineTo(cx, scaleY(v))
					}
				}
			}
			if kind == traceLine {
				dc.SetLineWidth(2)
				dc.Stroke()
			}
		}
		return true
	}
	return false
}

func paintPie(dc *gg.Context, trace map[string]any, box Rect) bool {
	values := numericValues(trace["values"])
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return false
	}
	cx, cy := box.X+box.Width/2, box.Y+box.Height/2
	radius := math.Min(box.Width, box.Height) / 2
	angle := -math.Pi / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		dc.SetHexColor(chartPalette[i%len(chartPalette)])
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.Fill()
		angle += sweep
	}
	return true
}

func numericValues(v any) []float64 {
	list := listValue(v)
	out := make([]float64, 0, len(list))
	for _, item := range list {
		if f, ok := floatValue(item); ok {
			out = append(out, f)
		}
	}
	return out
}

// decodeDataImage decodes a base64 data:image URI.
func decodeDataImage(src string) (image.Image, error) {
	if !IsImageDataURI(src) {
		return nil, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(strings.TrimSpace(src), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: expected base64 payload", ErrInvalidImage)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func hexColor(hex string) color.RGBA {
	r, g, b, _ := parseHexColor(hex)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
