package canvas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

var (
	errEmptyChart       = errors.New("canvas: chart definition has no traces")
	errUnsupportedTrace = errors.New("canvas: unsupported trace type")
)

type traceKind string

const (
	traceBar     traceKind = "bar"
	traceLine    traceKind = "line"
	traceScatter traceKind = "scatter"
	tracePie     traceKind = "pie"
)

// ChartRenderer turns declarative figures into self-contained go-echarts documents.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartRendererOption customizes renderer behavior.
type ChartRendererOption func(*ChartRenderer)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the echarts theme.
func WithChartTheme(theme string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so the echarts runtime loads from a CDN.
func WithChartAssetsHost(host string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a chart renderer.
func NewChartRenderer(options ...ChartRendererOption) *ChartRenderer {
	r := &ChartRenderer{
		cache:      NewChartCache(5 * time.Minute),
		theme:      types.ThemeWesteros,
		assetsHost: DefaultEChartsAssetsHost(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// MergeLayoutOverrides returns a copy of def whose layout carries overrides.
// The stored definition is never modified.
func MergeLayoutOverrides(def ChartDefinition, overrides map[string]any) ChartDefinition {
	out := def.Clone()
	if out.Layout == nil {
		out.Layout = map[string]any{}
	}
	for k, v := range overrides {
		out.Layout[k] = cloneValue(v)
	}
	return out
}

// sizeOverrides makes the figure follow the widget box.
func sizeOverrides(size Size) map[string]any {
	return map[string]any{
		"autosize": true,
		"width":    size.Width,
		"height":   size.Height,
	}
}

// RenderDocument renders the chart of instanceID at the given content size.
func (r *ChartRenderer) RenderDocument(instanceID string, def ChartDefinition, size Size) (string, error) {
	if def.IsPlaceholder() {
		return "", fmt.Errorf("canvas: chart definition unavailable: %s", def.PlaceholderReason())
	}
	effective := MergeLayoutOverrides(def, sizeOverrides(size))
	render := func() (string, error) {
		return r.render(effective)
	}
	if r.cache == nil {
		return render()
	}
	key := instanceID + ":" + contentHash(effective)
	return r.cache.GetOrRender(key, render)
}

func (r *ChartRenderer) render(def ChartDefinition) (string, error) {
	if len(def.Data) == 0 {
		return "", errEmptyChart
	}
	global := r.globalOptions(def)
	switch kind := kindOfTrace(def.Data[0]); kind {
	case traceBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(axisLabels(def.Data))
		for i, trace := range sameKind(def.Data, kind) {
			bar.AddSeries(traceName(trace, i), toBarData(trace))
		}
		return renderChart(bar)
	case traceLine:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(axisLabels(def.Data))
		for i, trace := range sameKind(def.Data, kind) {
			line.AddSeries(traceName(trace, i), toLineData(trace))
		}
		return renderChart(line)
	case traceScatter:
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(append(global, charts.WithXAxisOpts(opts.XAxis{Type: "value"}))...)
		for i, trace := range sameKind(def.Data, kind) {
			scatter.AddSeries(traceName(trace, i), toScatterData(trace))
		}
		return renderChart(scatter)
	case tracePie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(global...)
		for i, trace := range sameKind(def.Data, kind) {
			pie.AddSeries(traceName(trace, i), toPieData(trace))
		}
		return renderChart(pie)
	default:
		return "", fmt.Errorf("%w: %s", errUnsupportedTrace, kind)
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *ChartRenderer) globalOptions(def ChartDefinition) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  pixels(def.Layout["width"], "100%"),
		Height: pixels(def.Layout["height"], "100%"),
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: def.Title()}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(def.Data) > 1)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func kindOfTrace(trace map[string]any) traceKind {
	kind, _ := trace["type"].(string)
	switch strings.ToLower(kind) {
	case "bar", "histogram":
		return traceBar
	case "pie":
		return tracePie
	case "", "scatter", "scattergl":
		mode, _ := trace["mode"].(string)
		if mode == "markers" {
			return traceScatter
		}
		return traceLine
	case "line":
		return traceLine
	default:
		return traceKind(kind)
	}
}

func sameKind(traces []map[string]any, kind traceKind) []map[string]any {
	out := make([]map[string]any, 0, len(traces))
	for _, trace := range traces {
		if kindOfTrace(trace) == kind {
			out = append(out, trace)
		}
	}
	return out
}

func traceName(trace map[string]any, idx int) string {
	if name, ok := trace["name"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("Series %d", idx+1)
}

// axisLabels takes the category axis from the first trace that has x values.
func axisLabels(traces []map[string]any) []string {
	for _, trace := range traces {
		xs := listValue(trace["x"])
		if len(xs) == 0 {
			continue
		}
		labels := make([]string, len(xs))
		for i, x := range xs {
			labels[i] = labelValue(x)
		}
		return labels
	}
	ys := listValue(traces[0]["y"])
	labels := make([]string, len(ys))
	for i := range ys {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

func toBarData(trace map[string]any) []opts.BarData {
	ys := listValue(trace["y"])
	data := make([]opts.BarData, len(ys))
	for i, y := range ys {
		v, _ := floatValue(y)
		data[i] = opts.BarData{Value: v}
	}
	return data
}

func toLineData(trace map[string]any) []opts.LineData {
	ys := listValue(trace["y"])
	data := make([]opts.LineData, len(ys))
	for i, y := range ys {
		v, _ := floatValue(y)
		data[i] = opts.LineData{Value: v}
	}
	return data
}

func toScatterData(trace map[string]any) []opts.ScatterData {
	xs := listValue(trace["x"])
	ys := listValue(trace["y"])
	data := make([]opts.ScatterData, len(ys))
	for i, y := range ys {
		yv, _ := floatValue(y)
		xv := float64(i + 1)
		if i < len(xs) {
			if parsed, ok := floatValue(xs[i]); ok {
				xv = parsed
			}
		}
		data[i] = opts.ScatterData{Value: []float64{xv, yv}}
	}
	return data
}

func toPieData(trace map[string]any) []opts.PieData {
	labels := listValue(trace["labels"])
	values := listValue(trace["values"])
	data := make([]opts.PieData, len(values))
	for i, value := range values {
		name := fmt.Sprintf("Slice %d", i+1)
		if i < len(labels) {
			name = labelValue(labels[i])
		}
		v, _ := floatValue(value)
		data[i] = opts.PieData{Name: name, Value: v}
	}
	return data
}

func listValue(v any) []any {
	switch typed := v.(type) {
	case []any:
		return typed
	case []float64:
		out := make([]any, len(typed))
		for i, f := range typed {
			out[i] = f
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out
	}
	return nil
}

func floatValue(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	}
	return 0, false
}

func labelValue(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func pixels(v any, fallback string) string {
	if f, ok := floatValue(v); ok && f > 0 {
		return strconv.FormatFloat(f, 'f', 0, 64) + "px"
	}
	return fallback
}
